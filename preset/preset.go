package preset

import (
	"time"

	"github.com/mbeoliero/learncache"
	"github.com/mbeoliero/learncache/cacher"
	"github.com/mbeoliero/learncache/middleware"
	"github.com/mbeoliero/learncache/rediscache"
	"github.com/mbeoliero/learncache/tier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Options are the knobs shared by the presets. Zero values fall back to defaults.
type Options struct {
	Name      string
	Prefix    string
	Policy    *learncache.Policy
	Logger    cacher.Logger
	Registry  prometheus.Registerer
	ScanCount int64
}

func (o Options) policy() *learncache.Policy {
	if o.Policy == nil {
		return learncache.DefaultPolicy()
	}
	return o.Policy
}

func (o Options) name(fallback string) string {
	if o.Name == "" {
		return fallback
	}
	return o.Name
}

// NewManager creates a two-tier cache: Local Memory -> Redis, with every redis call
// logged and measured. Fetchers passed to Get act as the third tier.
func NewManager[V any](
	client redis.UniversalClient,
	opts Options,
	extra ...learncache.Option[V],
) *learncache.Manager[V] {
	policy := opts.policy()
	name := opts.name("default")

	var longest time.Duration
	for _, c := range policy.Categories() {
		if c.TTL > longest {
			longest = c.TTL
		}
	}

	redisStore := rediscache.NewRedisCache[string, V](client, longest).
		SetPrefix(opts.Prefix).
		SetName(name).
		SetLogger(opts.Logger).
		SetScanCount(opts.ScanCount).
		SetMiddleware(
			middleware.LoggerMiddleware[string, V](opts.Logger),
			rediscache.MetricsMiddleware[string, V](name, opts.Registry),
		).
		ToStore()

	mopts := []learncache.Option[V]{
		learncache.WithName[V](name),
		learncache.WithLogger[V](opts.Logger),
	}
	return learncache.NewManager[V](policy, redisStore, append(mopts, extra...)...)
}

// NewTierService creates the per-user tier cache on top of redis. A non-positive ttl
// keeps tier.DefaultTTL.
func NewTierService(
	client redis.UniversalClient,
	source tier.Source,
	ttl time.Duration,
	opts Options,
) *tier.Service {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = tier.DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = tier.DefaultTTL
	}

	store := rediscache.NewRedisCache[string, tier.Record](client, ttl).
		SetPrefix(prefix).
		SetName(opts.name("tier")).
		SetLogger(opts.Logger)

	return tier.NewService(store, source, tier.WithTTL(ttl), tier.WithLogger(opts.Logger))
}
