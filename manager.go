package learncache

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mbeoliero/learncache/cacher"
	"github.com/mbeoliero/learncache/datasource"
	"github.com/mbeoliero/learncache/localcache"
	"golang.org/x/sync/singleflight"
)

const (
	levelMemory = iota + 1
	levelDistributed
)

// Item is one key/value pair of a batch write.
type Item[V any] struct {
	Key   string
	Value V
}

// Manager orchestrates the in-process tier (L1), the distributed tier (L2) and caller
// supplied fetchers (L3) for every category of one value type.
//
// L1 is a pure accelerator: it is written first and is never rolled back when L2
// fails. Failures of L2 degrade to a miss and are counted, never returned from Get or Set.
type Manager[V any] struct {
	name        string
	policy      *Policy
	local       map[string]*localcache.LocalCache[V]
	remote      cacher.Interface[string, V]
	middlewares []cacher.Middleware[string, V]

	stats  Stats
	logger cacher.Logger
	clock  clockwork.Clock

	coalesce bool
	group    singleflight.Group
}

// NewManager builds one L1 cache per category of policy in front of remote.
func NewManager[V any](policy *Policy, remote cacher.Interface[string, V], opts ...Option[V]) *Manager[V] {
	m := &Manager[V]{
		name:   "default",
		policy: policy,
		logger: cacher.NopLogger{},
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.remote = cacher.WrapperStore(remote, m.middlewares...)
	m.local = make(map[string]*localcache.LocalCache[V], len(policy.categories))
	for _, c := range policy.Categories() {
		m.local[c.Name] = localcache.NewLocalCache[V](c.MaxMemoryItems, c.TTL,
			localcache.WithClock(m.clock),
			localcache.WithEvictionHook(func() { m.stats.evictions.Add(1) }),
		)
	}
	return m
}

func (m *Manager[V]) Name() string {
	return m.name
}

func (m *Manager[V]) Policy() *Policy {
	return m.policy
}

func (m *Manager[V]) tier(category string) (Category, *localcache.LocalCache[V], error) {
	c, err := m.policy.Lookup(category)
	if err != nil {
		return Category{}, nil, err
	}
	return c, m.local[category], nil
}

func (m *Manager[V]) remoteCtx(ctx context.Context, category string) context.Context {
	return cacher.NewContext(ctx, cacher.NewRunInfo(levelDistributed, category))
}

func effectiveTTL(c Category, override time.Duration) time.Duration {
	if override > 0 && override < c.TTL {
		return override
	}
	return c.TTL
}

// remainingTTL bounds a back-populated L1 entry by what is left of its L2 lifetime.
func remainingTTL(c Category, expiries *cacher.Expiries, fullKey string) time.Duration {
	if left, ok := expiries.Get(fullKey); ok && left < c.TTL {
		return left
	}
	return c.TTL
}

// Get reads key through L1, then L2, then fetch. A nil fetch turns the last step into a
// plain miss. Fetch errors are returned unchanged and nothing is cached; an absent
// fetch result is not cached either.
func (m *Manager[V]) Get(ctx context.Context, category, key string, fetch datasource.Fetcher[V], opts ...OptFunc) (V, bool, error) {
	var zero V
	o := applyOpts(opts)
	defer optionsPool.Put(o)

	c, local, err := m.tier(category)
	if err != nil {
		return zero, false, err
	}

	fullKey := BuildKey(category, key)
	if !o.skipMemory {
		if v, ok := local.Get(fullKey); ok {
			m.stats.hitsMemory.Add(1)
			return v, true, nil
		}
	}

	rctx, expiries := cacher.WithExpiries(m.remoteCtx(ctx, category))
	found, _, err := m.remote.MGet(rctx, []string{fullKey})
	if err != nil {
		m.stats.errors.Add(1)
		m.logger.CtxError(ctx, "[learncache] distributed get failed, falling through. key=%s err=%v", fullKey, err)
	} else if v, ok := found[fullKey]; ok {
		m.stats.hitsDistributed.Add(1)
		local.Set(fullKey, v, remainingTTL(c, expiries, fullKey))
		return v, true, nil
	}

	if fetch == nil {
		return zero, false, nil
	}

	m.stats.misses.Add(1)
	v, ok, err := m.load(ctx, fullKey, fetch)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	m.write(ctx, c, local, map[string]V{fullKey: v}, o.ttl)
	return v, true, nil
}

type fetchResult[V any] struct {
	value V
	ok    bool
}

func (m *Manager[V]) load(ctx context.Context, fullKey string, fetch datasource.Fetcher[V]) (V, bool, error) {
	if !m.coalesce {
		return fetch(ctx)
	}
	res, err, shared := m.group.Do(fullKey, func() (interface{}, error) {
		v, ok, err := fetch(ctx)
		return fetchResult[V]{value: v, ok: ok}, err
	})
	if shared {
		m.logger.CtxDebug(ctx, "[learncache] fetch coalesced. key=%s", fullKey)
	}
	r, _ := res.(fetchResult[V])
	return r.value, r.ok, err
}

// write stores entities in L1, then in L2 with one call. L2 failures are counted and logged.
func (m *Manager[V]) write(ctx context.Context, c Category, local *localcache.LocalCache[V], entities map[string]V, override time.Duration) {
	ttl := effectiveTTL(c, override)
	local.MSet(entities, ttl)
	m.stats.sets.Add(uint64(len(entities)))

	if err := m.remote.MSet(m.remoteCtx(ctx, c.Name), entities, ttl); err != nil {
		m.stats.errors.Add(1)
		m.logger.CtxError(ctx, "[learncache] distributed set failed, memory tier kept. category=%s size=%d err=%v", c.Name, len(entities), err)
	}
}

// Set writes value to both tiers. Only an unknown category is reported as an error.
func (m *Manager[V]) Set(ctx context.Context, category, key string, value V, opts ...OptFunc) error {
	o := applyOpts(opts)
	defer optionsPool.Put(o)

	c, local, err := m.tier(category)
	if err != nil {
		return err
	}
	m.write(ctx, c, local, map[string]V{BuildKey(category, key): value}, o.ttl)
	return nil
}

// Delete removes key from both tiers. Deleting an absent key is not an error.
func (m *Manager[V]) Delete(ctx context.Context, category, key string) error {
	_, local, err := m.tier(category)
	if err != nil {
		return err
	}
	fullKey := BuildKey(category, key)
	local.MDel([]string{fullKey})

	if err = m.remote.MDel(m.remoteCtx(ctx, category), []string{fullKey}); err != nil {
		m.stats.errors.Add(1)
		return fmt.Errorf("learncache: delete %s: %w", fullKey, err)
	}
	return nil
}

// InvalidateCategory drops every key of category from both tiers and returns how many
// distributed keys were removed. The distributed side scans the keyspace, so it should
// be reserved for categories of bounded cardinality.
func (m *Manager[V]) InvalidateCategory(ctx context.Context, category string) (int, error) {
	_, local, err := m.tier(category)
	if err != nil {
		return 0, err
	}
	local.Purge()

	n, err := m.remote.DelPattern(m.remoteCtx(ctx, category), CategoryPattern(category))
	if err != nil {
		m.stats.errors.Add(1)
		return n, fmt.Errorf("learncache: invalidate category %s: %w", category, err)
	}
	m.logger.CtxInfo(ctx, "[learncache] category invalidated. category=%s distributed_keys=%d", category, n)
	return n, nil
}

// BatchGet returns the subset of keys present in L1 or L2, issuing at most one L2
// call. It never consults a fetcher.
func (m *Manager[V]) BatchGet(ctx context.Context, category string, keys []string) (map[string]V, error) {
	c, local, err := m.tier(category)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return ret, nil
	}

	byFull := make(map[string]string, len(keys))
	fullKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		full := BuildKey(category, k)
		if _, dup := byFull[full]; dup {
			continue
		}
		byFull[full] = k
		fullKeys = append(fullKeys, full)
	}

	hits, missing := local.MGet(fullKeys)
	for full, v := range hits {
		ret[byFull[full]] = v
	}
	m.stats.hitsMemory.Add(uint64(len(hits)))
	if len(missing) == 0 {
		return ret, nil
	}

	rctx, expiries := cacher.WithExpiries(m.remoteCtx(ctx, category))
	found, _, err := m.remote.MGet(rctx, missing)
	if err != nil {
		m.stats.errors.Add(1)
		m.logger.CtxError(ctx, "[learncache] distributed batch get failed. category=%s keys=%d err=%v", category, len(missing), err)
		return ret, nil
	}
	for full, v := range found {
		ret[byFull[full]] = v
	}
	m.stats.hitsDistributed.Add(uint64(len(found)))
	for full, v := range found {
		local.Set(full, v, remainingTTL(c, expiries, full))
	}
	return ret, nil
}

// BatchSet writes every item to L1 and all of them to L2 in one pipelined call.
func (m *Manager[V]) BatchSet(ctx context.Context, category string, items []Item[V], opts ...OptFunc) error {
	o := applyOpts(opts)
	defer optionsPool.Put(o)

	c, local, err := m.tier(category)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	entities := make(map[string]V, len(items))
	for _, it := range items {
		entities[BuildKey(category, it.Key)] = it.Value
	}
	m.write(ctx, c, local, entities, o.ttl)
	return nil
}

// Warmup preloads items when the category allows it and reports whether anything was written.
func (m *Manager[V]) Warmup(ctx context.Context, category string, items []Item[V]) (bool, error) {
	c, err := m.policy.Lookup(category)
	if err != nil {
		return false, err
	}
	if !c.Warmup {
		return false, nil
	}
	if err = m.BatchSet(ctx, category, items); err != nil {
		return false, err
	}
	m.logger.CtxInfo(ctx, "[learncache] category warmed. category=%s items=%d", category, len(items))
	return true, nil
}

func (m *Manager[V]) Stats() Snapshot {
	return m.stats.Snapshot()
}

// ResetStats zeroes every counter. It is meant for operators only.
func (m *Manager[V]) ResetStats() {
	m.stats.Reset()
}
