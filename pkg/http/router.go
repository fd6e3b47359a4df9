package xhttp

import (
	"fmt"

	"github.com/fasthttp/router"
	"github.com/krarar/debt-manager/pkg/logger"
)

type Router = router.Router

func NewRouter() *Router {
	return router.New()
}

// CreateDefaultRouter returns a router whose fallbacks answer with the same
// JSON error body as the API handlers: unknown paths 404, known paths with
// the wrong method 405, panics 500.
func CreateDefaultRouter() *Router {
	r := NewRouter()
	r.RedirectFixedPath = true
	r.RedirectTrailingSlash = true
	r.SaveMatchedRoutePath = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	r.PanicHandler = PanicHandler
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	errorBody(ctx, StatusNotFound, StatusText(StatusNotFound))
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	errorBody(ctx, StatusMethodNotAllowed, StatusText(StatusMethodNotAllowed))
}

func PanicHandler(ctx *RequestCtx, v interface{}) {
	logger.Error("[xhttp] handler panic", "path", string(ctx.Path()), "panic", v)
	errorBody(ctx, StatusInternalServerError, StatusText(StatusInternalServerError))
}

func errorBody(ctx *RequestCtx, status int, msg string) {
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyString(fmt.Sprintf(`{"error":%q}`, msg))
}
