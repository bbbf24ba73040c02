package learncache

import "sync/atomic"

// Stats are observability counters only.
type Stats struct {
	hitsMemory      atomic.Uint64
	hitsDistributed atomic.Uint64
	misses          atomic.Uint64
	sets            atomic.Uint64
	evictions       atomic.Uint64
	errors          atomic.Uint64
}

type Snapshot struct {
	HitsMemory      uint64  `json:"hitsMemory"`
	HitsDistributed uint64  `json:"hitsDistributed"`
	Misses          uint64  `json:"misses"`
	Sets            uint64  `json:"sets"`
	Evictions       uint64  `json:"evictions"`
	Errors          uint64  `json:"errors"`
	HitRate         float64 `json:"hitRate"`
}

func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		HitsMemory:      s.hitsMemory.Load(),
		HitsDistributed: s.hitsDistributed.Load(),
		Misses:          s.misses.Load(),
		Sets:            s.sets.Load(),
		Evictions:       s.evictions.Load(),
		Errors:          s.errors.Load(),
	}
	hits := snap.HitsMemory + snap.HitsDistributed
	if total := hits + snap.Misses; total > 0 {
		snap.HitRate = float64(hits) / float64(total)
	}
	return snap
}

func (s *Stats) Reset() {
	s.hitsMemory.Store(0)
	s.hitsDistributed.Store(0)
	s.misses.Store(0)
	s.sets.Store(0)
	s.evictions.Store(0)
	s.errors.Store(0)
}
