package rediscache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mbeoliero/learncache/cacher"
	"github.com/mbeoliero/learncache/utils"
	"github.com/redis/go-redis/v9"
)

type RedisCache[K comparable, V any] struct {
	cli    redis.UniversalClient
	ttl    time.Duration
	prefix string
	name   string
	opt    *Option[K, V]
}

// NewRedisCache creates a redis backed tier. ttl is used for writes that do not carry their own.
func NewRedisCache[K comparable, V any](cli redis.UniversalClient, ttl time.Duration) *RedisCache[K, V] {
	return &RedisCache[K, V]{
		cli:  cli,
		ttl:  ttl,
		name: "redis",
		opt:  defaultOption[K, V](),
	}
}

func (r *RedisCache[K, V]) SetPrefix(prefix string) *RedisCache[K, V] {
	r.prefix = prefix
	return r
}

func (r *RedisCache[K, V]) SetName(name string) *RedisCache[K, V] {
	r.name = name
	return r
}

func (r *RedisCache[K, V]) SetCodec(codec Codec[V]) *RedisCache[K, V] {
	r.opt.Codec = codec
	return r
}

func (r *RedisCache[K, V]) SetLogger(logger cacher.Logger) *RedisCache[K, V] {
	r.opt.Logger = cacher.OrNop(logger)
	return r
}

func (r *RedisCache[K, V]) SetScanCount(count int64) *RedisCache[K, V] {
	if count > 0 {
		r.opt.ScanCount = count
	}
	return r
}

func (r *RedisCache[K, V]) SetMiddleware(mws ...cacher.Middleware[K, V]) *RedisCache[K, V] {
	r.opt.Mws = append(r.opt.Mws, mws...)
	return r
}

func (r *RedisCache[K, V]) ToStore() cacher.Interface[K, V] {
	return cacher.WrapperStore[K, V](r, r.opt.Mws...)
}

func (r *RedisCache[K, V]) Name() string {
	return r.name
}

func (r *RedisCache[K, V]) Prefix() string {
	return r.prefix
}

// MGet reads every key in a single pipelined round trip. Values that fail to decode are
// logged and reported as missing. When ctx carries cacher.Expiries, the remaining
// lifetime of every hit is read in the same pipeline and recorded there.
func (r *RedisCache[K, V]) MGet(ctx context.Context, keys []K) (map[K]V, []K, error) {
	ret := make(map[K]V, len(keys))
	miss := make([]K, 0)
	if len(keys) == 0 {
		return ret, miss, nil
	}
	redisKeys := r.getRedisKeys(keys)
	r.opt.Logger.CtxDebug(ctx, "[redis-cache] read data from redis keys=%v", redisKeys)

	expiries := cacher.ExpiriesFrom(ctx)
	p := r.cli.Pipeline()
	gets := make([]*redis.StringCmd, len(redisKeys))
	ttls := make([]*redis.DurationCmd, len(redisKeys))
	for i, key := range redisKeys {
		gets[i] = p.Get(ctx, key)
		if expiries != nil {
			ttls[i] = p.PTTL(ctx, key)
		}
	}
	_, err := p.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		r.opt.Logger.CtxError(ctx, "[redis-cache] MGet exec pipeline failed. err=%v", err)
		return nil, nil, err
	}

	for index, cmd := range gets {
		value, err := cmd.Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				r.opt.Logger.CtxError(ctx, "[redis-cache] get redis failed. key=%s err=%v", redisKeys[index], err)
			}
			continue
		}

		var entity V
		if err = r.opt.Codec.Unmarshal([]byte(value), &entity); err != nil {
			r.opt.Logger.CtxError(ctx, "[redis-cache] unmarshal failed, treating as miss. key=%s err=%v", redisKeys[index], err)
			continue
		}
		ret[keys[index]] = entity
		if ttls[index] != nil {
			if ttl, err := ttls[index].Result(); err == nil {
				expiries.Record(keys[index], ttl)
			}
		}
	}

	for _, key := range keys {
		if _, ok := ret[key]; !ok {
			miss = append(miss, key)
		}
	}
	r.opt.Logger.CtxDebug(ctx, "[redis-cache] read data from redis keys=%v. hit=%d miss=%d", redisKeys, len(ret), len(miss))
	return ret, miss, nil
}

// MSet writes every entity in a single pipelined round trip. A non-positive ttl falls
// back to the cache default.
func (r *RedisCache[K, V]) MSet(ctx context.Context, entities map[K]V, ttl time.Duration) error {
	if len(entities) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	p := r.cli.Pipeline()
	for key, entity := range entities {
		data, err := r.opt.Codec.Marshal(entity)
		if err != nil {
			return err
		}
		p.Set(ctx, r.getRedisKey(key), data, ttl)
	}
	results, err := p.Exec(ctx)
	if err != nil {
		r.opt.Logger.CtxError(ctx, "[redis-cache] MSet exec pipeline failed. err=%v", err)
		return err
	}
	for _, result := range results {
		if _, err = result.(*redis.StatusCmd).Result(); err != nil {
			r.opt.Logger.CtxError(ctx, "[redis-cache] set result failed. err=%v", err)
			return err
		}
	}
	r.opt.Logger.CtxDebug(ctx, "[redis-cache] set to redis success. size=%v ttl=%s", len(entities), ttl)
	return nil
}

func (r *RedisCache[K, V]) MDel(ctx context.Context, keys []K) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.cli.Del(ctx, r.getRedisKeys(keys)...).Err(); err != nil {
		r.opt.Logger.CtxError(ctx, "[redis-cache] delete failed.keys=%v,err=%v", keys, err)
		return err
	}

	r.opt.Logger.CtxDebug(ctx, "[redis-cache] delete success.keys=%v", keys)
	return nil
}

// DelPattern collects every key matching pattern with SCAN, then deletes them in batches
// of ScanCount. Keys are only deleted once the scan is complete since deleting during
// iteration may make the cursor skip keys. The prefix is matched literally.
func (r *RedisCache[K, V]) DelPattern(ctx context.Context, pattern string) (int, error) {
	match := escapeGlob(r.prefix) + pattern
	keys := make([]string, 0)
	iter := r.cli.Scan(ctx, 0, match, r.opt.ScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.opt.Logger.CtxError(ctx, "[redis-cache] scan failed. pattern=%s err=%v", match, err)
		return 0, err
	}

	deleted := 0
	size := int(r.opt.ScanCount)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		n, err := r.cli.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			r.opt.Logger.CtxError(ctx, "[redis-cache] delete by pattern failed. pattern=%s err=%v", match, err)
			return deleted, err
		}
		deleted += int(n)
	}

	r.opt.Logger.CtxDebug(ctx, "[redis-cache] delete by pattern success. pattern=%s matched=%d deleted=%d", match, len(keys), deleted)
	return deleted, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// TTL returns the remaining lifetime of key, or a negative duration when the key is
// absent (-2ns) or has no expiry (-1ns), mirroring the redis reply.
func (r *RedisCache[K, V]) TTL(ctx context.Context, key K) (time.Duration, error) {
	return r.cli.TTL(ctx, r.getRedisKey(key)).Result()
}

func (r *RedisCache[K, V]) getRedisKeys(keys []K) []string {
	ret := make([]string, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, r.getRedisKey(k))
	}
	return ret
}

func (r *RedisCache[K, V]) getRedisKey(k K) string {
	return r.prefix + utils.ToString(k)
}
