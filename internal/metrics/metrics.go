// ============================================================================
// jobtypes metrics - Prometheus instrumentation
// ============================================================================
//
// Package: internal/metrics
//
// Metrics:
//
//   1. Counters
//      - jobtypes_backend_calls_total{op, table, outcome}: list / retrieve /
//        download calls made against the backend
//      - jobtypes_type_operations_total{op, outcome}: schema, validate,
//        parse/format and enumeration calls made through a registry; the
//        outcome of a failure is its error kind (arity, lookup, ...)
//
//   2. Histogram
//      - jobtypes_backend_call_duration_seconds{op}
//
//   3. Gauge
//      - jobtypes_registered_classes: classes in the active registry
//
// Useful queries:
//
//   # lookups that found zero or several rows
//   rate(jobtypes_type_operations_total{outcome="lookup"}[5m])
//
//   # 95th percentile backend latency
//   histogram_quantile(0.95, jobtypes_backend_call_duration_seconds_bucket)
//
// ============================================================================

package metrics

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

const outcomeOK = "ok"

type Collector struct {
	backendCalls      *prometheus.CounterVec
	backendLatency    *prometheus.HistogramVec
	typeOperations    *prometheus.CounterVec
	registeredClasses prometheus.Gauge
}

// NewCollector creates a collector registered with the default registerer.
func NewCollector() *Collector {
	return NewCollectorFor(prometheus.DefaultRegisterer)
}

// NewCollectorFor creates a collector registered with r. It panics if the
// metrics are already registered there.
func NewCollectorFor(r prometheus.Registerer) *Collector {
	c := &Collector{
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtypes_backend_calls_total",
			Help: "Total number of backend calls by operation, table and outcome",
		}, []string{"op", "table", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobtypes_backend_call_duration_seconds",
			Help:    "Backend call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		typeOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobtypes_type_operations_total",
			Help: "Total number of type operations by operation and outcome",
		}, []string{"op", "outcome"}),
		registeredClasses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobtypes_registered_classes",
			Help: "Number of classes in the active registry",
		}),
	}

	r.MustRegister(c.backendCalls)
	r.MustRegister(c.backendLatency)
	r.MustRegister(c.typeOperations)
	r.MustRegister(c.registeredClasses)

	return c
}

func outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	return jobtype.KindOf(err).String()
}

// RecordBackendCall counts one backend call and its latency.
func (c *Collector) RecordBackendCall(op, table string, seconds float64, err error) {
	c.backendCalls.WithLabelValues(op, table, outcome(err)).Inc()
	c.backendLatency.WithLabelValues(op).Observe(seconds)
}

// ObserveOperation counts one type operation. It makes a Collector usable
// as a jobtype.Observer.
func (c *Collector) ObserveOperation(op string, err error) {
	c.typeOperations.WithLabelValues(op, outcome(err)).Inc()
}

func (c *Collector) SetRegisteredClasses(n int) {
	c.registeredClasses.Set(float64(n))
}

// ============================================================================
// Backend instrumentation
// ============================================================================

type instrumentedBackend struct {
	next   jobtype.Backend
	c      *Collector
	logger *slog.Logger
}

// InstrumentBackend wraps b so that every call is counted, timed, and
// logged at Warn level when it fails.
func InstrumentBackend(b jobtype.Backend, c *Collector) jobtype.Backend {
	return &instrumentedBackend{
		next:   b,
		c:      c,
		logger: slog.With("component", "backend"),
	}
}

func (ib *instrumentedBackend) record(op, table string, start time.Time, err error) {
	ib.c.RecordBackendCall(op, table, time.Since(start).Seconds(), err)
	if err != nil {
		ib.logger.Warn("backend call failed", "op", op, "table", table, "error", err)
	}
}

func (ib *instrumentedBackend) List(ctx context.Context, table string, filter jobtype.Filter) ([]jobtype.Row, error) {
	start := time.Now()
	rows, err := ib.next.List(ctx, table, filter)
	ib.record("list", table, start, err)
	return rows, err
}

func (ib *instrumentedBackend) Retrieve(ctx context.Context, table string, pk int64) (jobtype.Row, error) {
	start := time.Now()
	row, err := ib.next.Retrieve(ctx, table, pk)
	ib.record("retrieve", table, start, err)
	return row, err
}

func (ib *instrumentedBackend) Download(ctx context.Context, table string, pk int64) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := ib.next.Download(ctx, table, pk)
	ib.record("download", table, start, err)
	return rc, err
}
