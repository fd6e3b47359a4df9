package xhttp

import (
	"strings"
	"time"

	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

var skipPaths = []string{"/health", "/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
	}
}

// MetricsMiddleware reports method and final status of every request.
func MetricsMiddleware(observe func(method string, status int)) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			next(ctx)
			if !shouldSkip(string(ctx.Path())) {
				observe(string(ctx.Method()), ctx.Response.StatusCode())
			}
		}
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("[xhttp] panic recovered", "path", string(ctx.Path()), "error", err)
				errorBody(ctx, StatusInternalServerError, StatusText(StatusInternalServerError))
			}
		}()
		next(ctx)
	}
}

func RequestLoggerMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		latency := time.Since(start)
		status := ctx.Response.StatusCode()
		method := string(ctx.Method())
		ip := ctx.RemoteIP().String()
		rid := requestID(ctx)

		fields := []any{
			"status", status,
			"method", method,
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(ctx.Response.Body()),
			"ip", ip,
			"request_id", rid,
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400 || latency > slowThreshold:
			logger.Warn("http_request", fields...)
		default:
			logger.Debug("http_request", fields...)
		}
	}
}

// shouldSkip matches probe endpoints under any mount prefix.
func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasSuffix(p, sp) {
			return true
		}
	}
	return false
}

func requestID(ctx *fasthttp.RequestCtx) string {
	if v := ctx.Request.Header.Peek("X-Request-Id"); len(v) > 0 {
		return string(v)
	}
	return ""
}
