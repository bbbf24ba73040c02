package datasource

import (
	"context"
	"errors"
)

// ErrNotFound may be returned by a Func to signal an absent record rather than a failure.
var ErrNotFound = errors.New("datasource: not found")

// Fetcher loads one value from the system of record. ok=false means the record does
// not exist and nothing must be cached.
type Fetcher[V any] func(ctx context.Context) (V, bool, error)

// Func is the plain (V, error) shape most repositories expose.
type Func[V any] func(ctx context.Context) (V, error)

// ToFetcher maps ErrNotFound to an absent result and passes every other error through.
func (f Func[V]) ToFetcher() Fetcher[V] {
	return func(ctx context.Context) (V, bool, error) {
		v, err := f(ctx)
		if err != nil {
			var zero V
			if errors.Is(err, ErrNotFound) {
				return zero, false, nil
			}
			return zero, false, err
		}
		return v, true, nil
	}
}

// Value returns a fetcher that always yields v.
func Value[V any](v V) Fetcher[V] {
	return func(context.Context) (V, bool, error) {
		return v, true, nil
	}
}
