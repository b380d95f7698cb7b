package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors updated by the metrics middleware.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_store_operations_total",
				Help: "Total number of document store operations",
			},
			[]string{"op", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_store_operation_duration_seconds",
				Help:    "Duration of document store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Duration)
	}
	return m
}

// Middleware returns a decorator recording every call in m.
func (m *Metrics) Middleware() Middleware {
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &metricsMiddleware{next: next, metrics: m}
	}
}

type metricsMiddleware struct {
	next    ports.DocumentStore
	metrics *Metrics
}

func (m *metricsMiddleware) Save(ctx context.Context, id string, doc map[string]any) (err error) {
	timer := prometheus.NewTimer(m.metrics.Duration.WithLabelValues("save"))
	defer func() { m.done("save", timer, err) }()
	return m.next.Save(ctx, id, doc)
}

func (m *metricsMiddleware) Load(ctx context.Context, id string) (doc map[string]any, err error) {
	timer := prometheus.NewTimer(m.metrics.Duration.WithLabelValues("load"))
	defer func() { m.done("load", timer, err) }()
	return m.next.Load(ctx, id)
}

func (m *metricsMiddleware) Delete(ctx context.Context, id string) (err error) {
	timer := prometheus.NewTimer(m.metrics.Duration.WithLabelValues("delete"))
	defer func() { m.done("delete", timer, err) }()
	return m.next.Delete(ctx, id)
}

func (m *metricsMiddleware) List(ctx context.Context) (ids []string, err error) {
	timer := prometheus.NewTimer(m.metrics.Duration.WithLabelValues("list"))
	defer func() { m.done("list", timer, err) }()
	return m.next.List(ctx)
}

func (m *metricsMiddleware) done(op string, timer *prometheus.Timer, err error) {
	timer.ObserveDuration()
	m.metrics.Operations.WithLabelValues(op, result(err)).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return "not_found"
	default:
		return "error"
	}
}
