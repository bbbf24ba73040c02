package datasource

import "context"

// Loader is a keyed lookup against the system of record.
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, bool, error)

func NewLoader[K comparable, V any](f func(ctx context.Context, key K) (V, bool, error)) Loader[K, V] {
	return f
}

// Bind fixes the key and yields a fetcher suitable for a single cache lookup.
func (l Loader[K, V]) Bind(key K) Fetcher[V] {
	return func(ctx context.Context) (V, bool, error) {
		return l(ctx, key)
	}
}

// LoadMany resolves keys one by one and skips absent records; the first error aborts.
func (l Loader[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	ret := make(map[K]V, len(keys))
	for _, k := range keys {
		v, ok, err := l(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			ret[k] = v
		}
	}
	return ret, nil
}
