package syncer

import (
	"sync/atomic"
	"time"

	"github.com/krarar/debt-manager/pkg/prom"
)

// Metrics keeps in-process counters of sync cycles and mirrors them to
// prometheus when the metric system is enabled.
type Metrics struct {
	cycles          atomic.Int64
	failed          atomic.Int64
	declined        atomic.Int64
	uploaded        atomic.Int64
	itemFailures    atomic.Int64
	dropped         atomic.Int64
	merged          atomic.Int64
	totalDurationNs atomic.Int64
	lastResetNs     atomic.Int64
}

func NewMetrics() *Metrics {
	m := &Metrics{}
	m.lastResetNs.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) RecordSuccess(duration time.Duration, res *Result) {
	m.cycles.Add(1)
	m.totalDurationNs.Add(int64(duration))
	m.recordItems(res)
	prom.AddSyncCycle(prom.ResultSuccess, duration.Seconds())
}

// RecordAbort counts a cycle that started but could not finish.
func (m *Metrics) RecordAbort(duration time.Duration, res *Result) {
	m.failed.Add(1)
	m.recordItems(res)
	prom.AddSyncCycle(prom.ResultAborted, duration.Seconds())
}

func (m *Metrics) RecordDecline() {
	m.declined.Add(1)
	prom.AddSyncCycle(prom.ResultDeclined, 0)
}

func (m *Metrics) recordItems(res *Result) {
	m.uploaded.Add(int64(res.Uploaded))
	m.itemFailures.Add(int64(res.Failed))
	m.dropped.Add(int64(res.Dropped))
	m.merged.Add(int64(res.Merged))
	prom.AddSyncItems(prom.ResultSuccess, res.Uploaded)
	prom.AddSyncItems(prom.ResultFailed, res.Failed)
	prom.AddSyncItems(prom.ResultDropped, res.Dropped)
}

func (m *Metrics) GetStats() map[string]interface{} {
	cycles := m.cycles.Load()
	elapsed := time.Since(time.Unix(0, m.lastResetNs.Load())).Seconds()

	avgDuration := time.Duration(0)
	if cycles > 0 {
		avgDuration = time.Duration(m.totalDurationNs.Load() / cycles)
	}

	return map[string]interface{}{
		"cycles":          cycles,
		"cycles_failed":   m.failed.Load(),
		"cycles_declined": m.declined.Load(),
		"items_uploaded":  m.uploaded.Load(),
		"items_failed":    m.itemFailures.Load(),
		"items_dropped":   m.dropped.Load(),
		"records_merged":  m.merged.Load(),
		"avg_duration_ms": avgDuration.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *Metrics) Reset() {
	m.cycles.Store(0)
	m.failed.Store(0)
	m.declined.Store(0)
	m.uploaded.Store(0)
	m.itemFailures.Store(0)
	m.dropped.Store(0)
	m.merged.Store(0)
	m.totalDurationNs.Store(0)
	m.lastResetNs.Store(time.Now().UnixNano())
}
