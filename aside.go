package learncache

import (
	"context"
)

// CacheAside wraps a read so that it is served from the cache when possible and the
// result of fn is cached on a miss. Absent results (ok=false) and errors are not cached.
func CacheAside[A any, V any](
	m *Manager[V],
	category string,
	key func(A) string,
	fn func(ctx context.Context, arg A) (V, bool, error),
	opts ...OptFunc,
) func(ctx context.Context, arg A) (V, bool, error) {
	return func(ctx context.Context, arg A) (V, bool, error) {
		return m.Get(ctx, category, key(arg), func(ctx context.Context) (V, bool, error) {
			return fn(ctx, arg)
		}, opts...)
	}
}

// InvalidateAfter wraps a write so that the cached entry for its argument is deleted
// once fn succeeds. A failed invalidation is logged and does not change fn's result.
func InvalidateAfter[A any, R any, V any](
	m *Manager[V],
	category string,
	key func(A) string,
	fn func(ctx context.Context, arg A) (R, error),
) func(ctx context.Context, arg A) (R, error) {
	return func(ctx context.Context, arg A) (R, error) {
		res, err := fn(ctx, arg)
		if err != nil {
			return res, err
		}
		if derr := m.Delete(ctx, category, key(arg)); derr != nil {
			m.logger.CtxError(ctx, "[learncache] invalidate after write failed. category=%s err=%v", category, derr)
		}
		return res, nil
	}
}
