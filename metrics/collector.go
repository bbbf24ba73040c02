// Package metrics exports cache statistics to Prometheus.
package metrics

import (
	"sync"

	"github.com/mbeoliero/learncache"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that reports manager statistics, typically a *learncache.Manager.
type StatsSource interface {
	Name() string
	Stats() learncache.Snapshot
}

// StatsCollector turns manager snapshots into metrics at scrape time. Counters are reset
// together with the manager statistics.
type StatsCollector struct {
	mu      sync.RWMutex
	sources []StatsSource

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	sets      *prometheus.Desc
	evictions *prometheus.Desc
	errors    *prometheus.Desc
	hitRate   *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

func NewStatsCollector(sources ...StatsSource) *StatsCollector {
	labels := []string{"cache"}
	return &StatsCollector{
		sources:   sources,
		hits:      prometheus.NewDesc("learncache_hits_total", "Cache hits by tier.", []string{"cache", "tier"}, nil),
		misses:    prometheus.NewDesc("learncache_misses_total", "Reads that invoked a fetcher.", labels, nil),
		sets:      prometheus.NewDesc("learncache_sets_total", "Keys written through both tiers.", labels, nil),
		evictions: prometheus.NewDesc("learncache_evictions_total", "Memory tier entries evicted to respect the size bound.", labels, nil),
		errors:    prometheus.NewDesc("learncache_errors_total", "Distributed tier failures absorbed by the cache.", labels, nil),
		hitRate:   prometheus.NewDesc("learncache_hit_rate", "Hits over hits plus misses.", labels, nil),
	}
}

// Add registers more sources after construction.
func (c *StatsCollector) Add(sources ...StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, sources...)
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.sets
	ch <- c.evictions
	ch <- c.errors
	ch <- c.hitRate
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, src := range c.sources {
		name := src.Name()
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.HitsMemory), name, "memory")
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.HitsDistributed), name, "distributed")
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.sets, prometheus.CounterValue, float64(s.Sets), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors), name)
		ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate, name)
	}
}
