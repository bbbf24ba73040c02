package learncache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mbeoliero/learncache/cacher"
)

var optionsPool = sync.Pool{
	New: func() interface{} {
		return &cacheOpts{}
	},
}

type cacheOpts struct {
	ttl        time.Duration
	skipMemory bool
}

type OptFunc func(*cacheOpts)

// WithTTL overrides the write TTL. The category TTL stays the upper bound.
func WithTTL(ttl time.Duration) OptFunc {
	return func(opts *cacheOpts) {
		opts.ttl = ttl
	}
}

// WithSkipMemory makes a read bypass the in-process tier, e.g. right after an
// out-of-band write on another instance. The result is still back-populated.
func WithSkipMemory() OptFunc {
	return func(opts *cacheOpts) {
		opts.skipMemory = true
	}
}

func defaultOpts() *cacheOpts {
	opt := optionsPool.Get().(*cacheOpts)
	opt.free()
	return opt
}

func applyOpts(opts []OptFunc) *cacheOpts {
	o := defaultOpts()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (m *cacheOpts) free() {
	m.ttl = 0
	m.skipMemory = false
}

// Option configures a Manager at construction.
type Option[V any] func(*Manager[V])

// WithName labels the manager in logs, metrics and the admin API.
func WithName[V any](name string) Option[V] {
	return func(m *Manager[V]) {
		m.name = name
	}
}

func WithLogger[V any](logger cacher.Logger) Option[V] {
	return func(m *Manager[V]) {
		m.logger = cacher.OrNop(logger)
	}
}

func WithClock[V any](clock clockwork.Clock) Option[V] {
	return func(m *Manager[V]) {
		m.clock = clock
	}
}

// WithMiddleware wraps the distributed tier, outermost first.
func WithMiddleware[V any](mws ...cacher.Middleware[string, V]) Option[V] {
	return func(m *Manager[V]) {
		m.middlewares = append(m.middlewares, mws...)
	}
}

// WithCoalescing collapses concurrent fetches for the same missing key inside this
// process into one source call. Off by default.
func WithCoalescing[V any]() Option[V] {
	return func(m *Manager[V]) {
		m.coalesce = true
	}
}
