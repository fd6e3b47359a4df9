package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/krarar/debt-manager/pkg/logger"
)

const ReportInterval = time.Second * 30

// Service runs the engine unattended: connectivity probing, periodic
// cycles and a periodic metrics report.
type Service struct {
	engine   *Engine
	monitor  *ConnectivityMonitor
	interval time.Duration
	report   time.Duration
	log      *logger.ZapLogger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

type ServiceConfig struct {
	// Interval between periodic cycles; zero leaves only reconnect cycles.
	Interval       time.Duration
	ProbeInterval  time.Duration
	ReportInterval time.Duration
}

func NewService(engine *Engine, config ServiceConfig) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	report := config.ReportInterval
	if report <= 0 {
		report = ReportInterval
	}
	return &Service{
		engine:   engine,
		monitor:  NewConnectivityMonitor(engine, config.ProbeInterval),
		interval: config.Interval,
		report:   report,
		log:      logger.With("component", "syncer"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Service) Start() error {
	s.log.Info("Starting Sync Service...")

	if err := s.engine.Init(s.ctx); err != nil {
		return err
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.monitor.Run(s.ctx)
	}()
	go s.metricsReporter()

	if s.interval > 0 {
		s.wg.Add(1)
		go s.periodicSync()
	}

	s.log.Info("Sync Service started", "interval", s.interval, "uid", s.engine.UserID())
	return nil
}

func (s *Service) periodicSync() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.engine.AutoSync(s.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.report)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportMetrics()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) reportMetrics() {
	stats := s.engine.Metrics().GetStats()
	s.log.Info("Sync metrics",
		"cycles", stats["cycles"], "cycles_failed", stats["cycles_failed"], "cycles_declined", stats["cycles_declined"],
		"items_uploaded", stats["items_uploaded"], "items_failed", stats["items_failed"], "items_dropped", stats["items_dropped"],
		"records_merged", stats["records_merged"], "avg_duration_ms", stats["avg_duration_ms"], "uptime_seconds", stats["uptime_seconds"])

	if queued, err := s.engine.outbox.Len(context.Background()); err == nil {
		s.log.Info("Outbox stats", "pending", queued, "online", s.engine.IsOnline(), "state", s.engine.State().String())
	}
}

// Stop cancels the loops, waits for them and logs the final metrics.
func (s *Service) Stop() {
	s.log.Info("Shutting down Sync Service...")

	s.cancel()
	s.engine.Stop()
	s.wg.Wait()

	s.reportMetrics()
	s.log.Info("Sync Service stopped")
}
