package cacher

// Middleware decorates a shared tier, e.g. with logging or metrics.
type Middleware[K comparable, V any] func(next Interface[K, V]) Interface[K, V]

// ChainMw composes mws so that the first one is the outermost. Nil entries are skipped,
// which lets callers build the list conditionally.
func ChainMw[K comparable, V any](mws ...Middleware[K, V]) Middleware[K, V] {
	return func(next Interface[K, V]) Interface[K, V] {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] == nil {
				continue
			}
			next = mws[i](next)
		}
		return next
	}
}

// WrapperStore returns store decorated by mws, or store itself when there are none.
func WrapperStore[K comparable, V any](store Interface[K, V], mws ...Middleware[K, V]) Interface[K, V] {
	if len(mws) == 0 {
		return store
	}
	return ChainMw(mws...)(store)
}
