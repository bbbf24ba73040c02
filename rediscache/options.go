package rediscache

import (
	"github.com/mbeoliero/learncache/cacher"
)

type Option[K comparable, V any] struct {
	Codec  Codec[V]
	Logger cacher.Logger
	Mws    []cacher.Middleware[K, V]
	// ScanCount is the COUNT hint used while walking keys for DelPattern.
	ScanCount int64
}

func defaultOption[K comparable, V any]() *Option[K, V] {
	return &Option[K, V]{
		Codec:     &JsonCodec[V]{},
		Logger:    cacher.NopLogger{},
		ScanCount: 500,
	}
}
