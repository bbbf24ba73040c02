package metrics

import (
	"strings"
	"testing"

	"github.com/mbeoliero/learncache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	name string
	snap learncache.Snapshot
}

func (f fixedSource) Name() string                { return f.name }
func (f fixedSource) Stats() learncache.Snapshot { return f.snap }

func TestStatsCollector(t *testing.T) {
	c := NewStatsCollector(fixedSource{name: "lessons", snap: learncache.Snapshot{
		HitsMemory:      6,
		HitsDistributed: 2,
		Misses:          2,
		Sets:            4,
		Errors:          1,
		HitRate:         0.8,
	}})

	expected := `
# HELP learncache_hits_total Cache hits by tier.
# TYPE learncache_hits_total counter
learncache_hits_total{cache="lessons",tier="distributed"} 2
learncache_hits_total{cache="lessons",tier="memory"} 6
# HELP learncache_hit_rate Hits over hits plus misses.
# TYPE learncache_hit_rate gauge
learncache_hit_rate{cache="lessons"} 0.8
# HELP learncache_errors_total Distributed tier failures absorbed by the cache.
# TYPE learncache_errors_total counter
learncache_errors_total{cache="lessons"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"learncache_hits_total", "learncache_hit_rate", "learncache_errors_total"))
}

func TestStatsCollectorMultipleSources(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewStatsCollector(fixedSource{name: "a"})
	require.NoError(t, reg.Register(c))
	c.Add(fixedSource{name: "b"})

	n, err := testutil.GatherAndCount(reg, "learncache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = testutil.GatherAndCount(reg, "learncache_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
