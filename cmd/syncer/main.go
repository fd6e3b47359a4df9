package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/krarar/debt-manager/internal/app"
	"github.com/krarar/debt-manager/internal/config"
	"github.com/krarar/debt-manager/internal/syncer"
	"github.com/krarar/debt-manager/pkg/logger"
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
	logger.Info("starting ledger syncer", "version", version, "commit", commit, "date", date)

	a, err := app.New(context.Background(), config.Get())
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		return
	}
	defer a.Close()

	if err := app.StartMetrics(config.Get()); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	service := syncer.NewService(a.Engine, syncer.ServiceConfig{
		Interval:      config.Get().SyncInterval,
		ProbeInterval: config.Get().SyncProbeInterval,
	})

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start syncer", "error", err)
		return
	}

	<-c
	service.Stop()
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
