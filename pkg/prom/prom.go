package prom

import (
	"errors"
	"strconv"
	"sync"

	xhttp "github.com/krarar/debt-manager/pkg/http"
	"github.com/krarar/debt-manager/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemSync   = "sync"
	SystemLedger = "ledger"
)
const (
	MetricSyncCycles        = "cycles_total"
	MetricSyncItems         = "items_total"
	MetricSyncCycleDuration = "cycle_duration_seconds"
	MetricSyncOutboxLength  = "outbox_length"
	MetricLedgerRequests    = "http_requests_total"
)

// Outcome labels of sync cycles and outbox items.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultDeclined = "declined"
	ResultAborted  = "aborted"
	ResultDropped  = "dropped"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionGaugeVec = make(map[string]*prometheus.GaugeVec)
var MetricCollectionHistogram = make(map[string]prometheus.Histogram)

var defaultLabels prometheus.Labels

// Create registers the ledger's metric set. Calling it again reuses the
// collectors already registered.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	MetricSystemEnabled = true

	return errors.Join(
		createCounterVec(SystemSync, MetricSyncCycles, "Sync cycles by outcome.", "result"),
		createCounterVec(SystemSync, MetricSyncItems, "Outbox items by upload outcome.", "result"),
		createHistogram(SystemSync, MetricSyncCycleDuration, "Duration of sync cycles that ran."),
		createGaugeVec(SystemSync, MetricSyncOutboxLength, "Outbox entries left after the last cycle.", "uid"),
		createCounterVec(SystemLedger, MetricLedgerRequests, "Ledger API requests by method and status.", "method", "status"),
	)
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

// register returns the collector already registered under the same
// descriptor, if any, instead of failing.
func register[C prometheus.Collector](c C) (C, error) {
	err := prometheus.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func createCounterVec(subsystem, name, help string, labels ...string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c, err := register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	}, labels))
	MetricCollectionCounterVec[subsystem+name] = c
	return err
}

func createHistogram(subsystem, name, help string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	h, err := register(prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}))
	MetricCollectionHistogram[subsystem+name] = h
	return err
}

func createGaugeVec(subsystem, name, help string, labels ...string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	g, err := register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: defaultLabels,
	}, labels))
	MetricCollectionGaugeVec[subsystem+name] = g
	return err
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogram(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogram[subsystem+name]; ok {
		v.Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func SetGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionGaugeVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Set(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

// AddSyncCycle counts a cycle; only cycles that ran feed the duration histogram.
func AddSyncCycle(result string, duration float64) {
	IncCounterVec(SystemSync, MetricSyncCycles, result)
	if result == ResultSuccess || result == ResultAborted {
		AddHistogram(SystemSync, MetricSyncCycleDuration, duration)
	}
}

func AddSyncItems(result string, n int) {
	if n == 0 {
		return
	}
	AddCounterVec(SystemSync, MetricSyncItems, float64(n), result)
}

func SetOutboxLength(uid string, n int) {
	SetGaugeVec(SystemSync, MetricSyncOutboxLength, float64(n), uid)
}

func IncLedgerRequest(method string, status int) {
	IncCounterVec(SystemLedger, MetricLedgerRequests, method, strconv.Itoa(status))
}
