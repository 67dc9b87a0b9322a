package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics holds the collectors shared by every instrumented store.
type StoreMetrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates and registers the store collectors.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowdeck_store_operations_total",
				Help: "Total number of flow store operations",
			},
			[]string{"op", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowdeck_store_operation_duration_seconds",
				Help:    "Duration of flow store operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.Operations, m.Duration)
	return m
}

type metricsMiddleware struct {
	next    ports.FlowStore
	metrics *StoreMetrics
}

// NewMetricsMiddleware creates a middleware that counts and times store operations.
func NewMetricsMiddleware(metrics *StoreMetrics) Middleware {
	return func(next ports.FlowStore) ports.FlowStore {
		return &metricsMiddleware{next: next, metrics: metrics}
	}
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrFlowNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrUnsupported):
		result = "unsupported"
	case err != nil:
		result = "error"
	}
	m.metrics.Operations.WithLabelValues(op, result).Inc()
	m.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsMiddleware) Save(ctx context.Context, flowID string, graph *domain.Graph) (err error) {
	defer func(start time.Time) { m.observe("save", start, err) }(time.Now())
	return m.next.Save(ctx, flowID, graph)
}

func (m *metricsMiddleware) Load(ctx context.Context, flowID string) (g *domain.Graph, err error) {
	defer func(start time.Time) { m.observe("load", start, err) }(time.Now())
	return m.next.Load(ctx, flowID)
}

func (m *metricsMiddleware) Delete(ctx context.Context, flowID string) (err error) {
	defer func(start time.Time) { m.observe("delete", start, err) }(time.Now())
	return m.next.Delete(ctx, flowID)
}

func (m *metricsMiddleware) List(ctx context.Context) (ids []string, err error) {
	defer func(start time.Time) { m.observe("list", start, err) }(time.Now())
	return m.next.List(ctx)
}
