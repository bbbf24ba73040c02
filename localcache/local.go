package localcache

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/maypok86/otter/v2"
)

// Entry is the in-process copy of a cached value.
type Entry[V any] struct {
	Key        string
	Value      V
	InsertedAt time.Time
	TTL        time.Duration
}

func (e Entry[V]) expired(now time.Time) bool {
	return !now.Before(e.InsertedAt.Add(e.TTL))
}

type Option func(*options)

type options struct {
	clock   clockwork.Clock
	onEvict func()
}

// WithClock replaces the wall clock used for the insertion time check.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithEvictionHook is called whenever an entry is dropped to respect the size bound.
func WithEvictionHook(fn func()) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// LocalCache is one bounded, write-expiring in-memory cache. Entries never outlive
// the TTL they were written with.
type LocalCache[V any] struct {
	cache *otter.Cache[string, Entry[V]]
	ttl   time.Duration
	clock clockwork.Clock
}

func NewLocalCache[V any](maxSize int, ttl time.Duration, opts ...Option) *LocalCache[V] {
	o := &options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(o)
	}
	if maxSize <= 0 {
		maxSize = 10_000
	}

	onEvict := o.onEvict
	return &LocalCache[V]{
		cache: otter.Must(&otter.Options[string, Entry[V]]{
			MaximumSize:      maxSize,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry[V]](ttl),
			OnDeletion: func(e otter.DeletionEvent[string, Entry[V]]) {
				if onEvict != nil && e.Cause == otter.CauseOverflow {
					onEvict()
				}
			},
		}),
		ttl:   ttl,
		clock: o.clock,
	}
}

// TTL is the upper bound applied to every write.
func (r *LocalCache[V]) TTL() time.Duration {
	return r.ttl
}

func (r *LocalCache[V]) Get(key string) (V, bool) {
	e, ok := r.cache.GetIfPresent(key)
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(r.clock.Now()) {
		r.cache.Invalidate(key)
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Set stores value for at most min(ttl, cache TTL). A non-positive ttl means the cache TTL.
func (r *LocalCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 || ttl > r.ttl {
		ttl = r.ttl
	}
	r.cache.Set(key, Entry[V]{
		Key:        key,
		Value:      value,
		InsertedAt: r.clock.Now(),
		TTL:        ttl,
	})
	if ttl < r.ttl {
		r.cache.SetExpiresAfter(key, ttl)
	}
}

func (r *LocalCache[V]) MGet(keys []string) (map[string]V, []string) {
	ret := make(map[string]V, len(keys))
	miss := make([]string, 0)
	for _, key := range keys {
		if val, ok := r.Get(key); ok {
			ret[key] = val
		} else {
			miss = append(miss, key)
		}
	}
	return ret, miss
}

func (r *LocalCache[V]) MSet(entities map[string]V, ttl time.Duration) {
	for k, v := range entities {
		r.Set(k, v, ttl)
	}
}

func (r *LocalCache[V]) MDel(keys []string) {
	for _, key := range keys {
		r.cache.Invalidate(key)
	}
}

// Purge drops every entry held by this cache.
func (r *LocalCache[V]) Purge() {
	r.cache.InvalidateAll()
}

func (r *LocalCache[V]) Len() int {
	return r.cache.EstimatedSize()
}
