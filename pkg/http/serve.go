package xhttp

import (
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/valyala/fasthttp"
)

type Server = fasthttp.Server

var DefaultServerOption = ServerOption{
	IdleTimeout:        time.Second * 10,
	MaxRequestBodySize: 16 * 1024 * 1024, // snapshots and csv sheets travel in one body
	ReadTimeout:        time.Second * 10,
	WriteTimeout:       time.Second * 10,
	RequestTimeout:     time.Second * 30,
	Concurrency:        1_024,
}

type ServerOption struct {
	// idle keep-alive connections are closed after this
	IdleTimeout time.Duration

	MaxRequestBodySize int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// a sync cycle runs inside the request, keep this above the lock ttl
	RequestTimeout time.Duration

	Concurrency int
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: &fasthttp.Server{
			Name:                  "debt-manager",
			Concurrency:           options.Concurrency,
			ReadTimeout:           options.ReadTimeout,
			WriteTimeout:          options.WriteTimeout,
			IdleTimeout:           options.IdleTimeout,
			MaxRequestBodySize:    options.MaxRequestBodySize,
			NoDefaultServerHeader: true,
			CloseOnShutdown:       true,
			Logger:                logger.GetLogger(),
			ErrorHandler: func(ctx *RequestCtx, err error) {
				logger.Warn("[xhttp] request error", "error", err)
			},
		},
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption)
}

// BuildHandler returns the routed handler wrapped by the registered middleware.
func (e *Engine) BuildHandler() RequestHandler {
	e.DoRouting()
	return e.Server.Handler
}

func (e *Engine) ListenAndServe(addr string) error {
	e.DoRouting()
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

func (e *Engine) DoRouting() {
	for method, route := range e.Router.List() {
		for _, r := range route {
			logger.Debug("[xhttp] route", "method", method, "path", r)
		}
	}
	e.Server.Handler = e.Router.Handler
	if e.option.RequestTimeout > 0 {
		e.Server.Handler = TimeoutMiddleware(e.option.RequestTimeout)(e.Server.Handler)
	}
	// the first registered middleware runs first
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for _, m := range middle {
		e.Server.Handler = m(e.Server.Handler)
		logger.Debug("[xhttp] middleware registered", "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
}

// Use appends middleware to the chain run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// CloseOnSignal shuts the server down on SIGINT, SIGTERM or SIGQUIT.
func (e *Engine) CloseOnSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		e.Shutdown()
	}()
}

func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
