package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/krarar/debt-manager/internal/app"
	"github.com/krarar/debt-manager/internal/config"
	"github.com/krarar/debt-manager/internal/handlers"
	"github.com/krarar/debt-manager/internal/syncer"
	xhttp "github.com/krarar/debt-manager/pkg/http"
	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/krarar/debt-manager/pkg/prom"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	logger.Info("starting ledger api", "version", version, "commit", commit, "date", date)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, config.Get())
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		return
	}
	defer a.Close()

	if err := app.StartMetrics(config.Get()); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	if err := a.Engine.Init(ctx); err != nil {
		// the ledger stays usable offline; sync calls will decline
		logger.Warn("sync engine not initialized", "error", err)
	}
	go syncer.NewConnectivityMonitor(a.Engine, config.Get().SyncProbeInterval).Run(ctx)

	s := xhttp.CreateServer()
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.MetricsMiddleware(prom.IncLedgerRequest))

	g := s.Router.Group("/api/v1")
	handlers.RegisterLedgerRoutes(g, handlers.NewLedgerHandler(a.Ledger))
	handlers.RegisterSyncRoutes(g, handlers.NewSyncHandler(a.Engine))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(a.DB, a.Engine))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
