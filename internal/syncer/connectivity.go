package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/logger"
)

func (e *Engine) IsOnline() bool {
	return e.online.Load()
}

// SetOnline records a connectivity change. Going online schedules an
// automatic cycle after the debounce delay; going offline only flips the flag.
func (e *Engine) SetOnline(online bool) {
	was := e.online.Swap(online)
	if was == online {
		return
	}
	logger.Info("connectivity changed", "online", online)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
	if online {
		e.debounce = time.AfterFunc(e.config.Debounce, func() {
			e.AutoSync(context.Background())
		})
	}
}

// AutoSync runs a cycle if sync is enabled. Declines are expected here and
// only logged at debug level.
func (e *Engine) AutoSync(ctx context.Context) {
	enabled, err := e.ledger.SyncEnabled(ctx)
	if err != nil {
		logger.Warn("auto sync skipped", "error", err)
		return
	}
	if !enabled {
		return
	}
	if _, err := e.PerformSync(ctx); err != nil && !errors.Is(err, model.ErrSyncUnavailable) {
		logger.Warn("auto sync failed", "error", err)
	}
}

// Stop cancels a pending debounced cycle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.debounce != nil {
		e.debounce.Stop()
		e.debounce = nil
	}
}

// ConnectivityMonitor pings the remote store on an interval and feeds the
// result to SetOnline.
type ConnectivityMonitor struct {
	engine   *Engine
	interval time.Duration
	timeout  time.Duration
}

// DefaultProbeInterval replaces a non-positive probe interval.
const DefaultProbeInterval = 30 * time.Second

func NewConnectivityMonitor(engine *Engine, interval time.Duration) *ConnectivityMonitor {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	timeout := interval / 2
	if timeout <= 0 || timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &ConnectivityMonitor{engine: engine, interval: interval, timeout: timeout}
}

// Run probes once immediately, then on every tick until ctx is done.
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *ConnectivityMonitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.engine.Probe(ctx)
}

// Probe pings the remote store once and records the outcome.
func (e *Engine) Probe(ctx context.Context) bool {
	if err := e.remote.Ping(ctx); err != nil {
		if e.IsOnline() {
			logger.Warn("remote store unreachable", "error", err)
		}
		e.SetOnline(false)
		return false
	}
	e.SetOnline(true)
	return true
}
