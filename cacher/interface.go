package cacher

import (
	"context"
	"time"
)

// Interface defines the core interface for a shared cache tier.
// MSet applies one TTL to every entity written by the call.
type Interface[K comparable, V any] interface {
	BaseInfo
	MGet(ctx context.Context, keys []K) (map[K]V, []K, error)
	MSet(ctx context.Context, entities map[K]V, ttl time.Duration) error
	MDel(ctx context.Context, keys []K) error
	// DelPattern removes every key matching a glob pattern and reports how many were removed.
	DelPattern(ctx context.Context, pattern string) (int, error)
}

type BaseInfo interface {
	Name() string
}

type RunInfo interface {
	// Level returns the current cache level index, starting from 1 (e.g. 1, 2, 3...).
	Level() int
	// Category returns the logical category the call operates on, empty when unknown.
	Category() string
}
