package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/mbeoliero/learncache/cacher"
	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds the collectors shared by every metricsWrapper on one registerer.
type storeMetrics struct {
	duration *prometheus.HistogramVec
	keys     *prometheus.CounterVec
}

func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	m := &storeMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "learncache",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of distributed cache operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"store", "op", "status"}),
		keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learncache",
			Subsystem: "store",
			Name:      "keys_total",
			Help:      "Keys touched by distributed cache operations.",
		}, []string{"store", "op", "result"}),
	}
	if reg == nil {
		return m
	}
	m.duration = register(reg, m.duration)
	m.keys = register(reg, m.keys)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

// metricsWrapper records latency and key counts for a redis store
type metricsWrapper[K comparable, V any] struct {
	name    string
	next    cacher.Interface[K, V]
	metrics *storeMetrics
}

// MetricsMiddleware creates a prometheus instrumented middleware. A nil registerer keeps the
// collectors unregistered.
func MetricsMiddleware[K comparable, V any](name string, reg prometheus.Registerer) cacher.Middleware[K, V] {
	metrics := newStoreMetrics(reg)
	return func(next cacher.Interface[K, V]) cacher.Interface[K, V] {
		return &metricsWrapper[K, V]{
			name:    name,
			next:    next,
			metrics: metrics,
		}
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *metricsWrapper[K, V]) observe(op string, start time.Time, err error) {
	m.metrics.duration.WithLabelValues(m.name, op, status(err)).Observe(time.Since(start).Seconds())
}

func (m *metricsWrapper[K, V]) Name() string {
	return m.next.Name()
}

func (m *metricsWrapper[K, V]) MGet(ctx context.Context, keys []K) (ret map[K]V, miss []K, err error) {
	start := time.Now()
	defer func() {
		m.observe("mget", start, err)
		if err == nil {
			m.metrics.keys.WithLabelValues(m.name, "mget", "hit").Add(float64(len(ret)))
			m.metrics.keys.WithLabelValues(m.name, "mget", "miss").Add(float64(len(miss)))
		}
	}()
	return m.next.MGet(ctx, keys)
}

func (m *metricsWrapper[K, V]) MSet(ctx context.Context, entities map[K]V, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() {
		m.observe("mset", start, err)
		m.metrics.keys.WithLabelValues(m.name, "mset", status(err)).Add(float64(len(entities)))
	}()
	return m.next.MSet(ctx, entities, ttl)
}

func (m *metricsWrapper[K, V]) MDel(ctx context.Context, keys []K) (err error) {
	start := time.Now()
	defer func() {
		m.observe("mdel", start, err)
		m.metrics.keys.WithLabelValues(m.name, "mdel", status(err)).Add(float64(len(keys)))
	}()
	return m.next.MDel(ctx, keys)
}

func (m *metricsWrapper[K, V]) DelPattern(ctx context.Context, pattern string) (n int, err error) {
	start := time.Now()
	defer func() {
		m.observe("delpattern", start, err)
		m.metrics.keys.WithLabelValues(m.name, "delpattern", status(err)).Add(float64(n))
	}()
	return m.next.DelPattern(ctx, pattern)
}
