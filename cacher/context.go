package cacher

import (
	"context"
	"sync"
	"time"
)

type contextKey struct{}

var runInfoKey = contextKey{}

type runInfo struct {
	level    int
	category string
}

func (r *runInfo) Level() int {
	return r.level
}

func (r *runInfo) Category() string {
	return r.category
}

func NewRunInfo(level int, category string) RunInfo {
	return &runInfo{level: level, category: category}
}

func NewContext(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey, info)
}

func GetRunInfo(ctx context.Context) RunInfo {
	if info, ok := ctx.Value(runInfoKey).(RunInfo); ok {
		return info
	}
	return &runInfo{}
}

type expiriesKey struct{}

// Expiries receives the remaining lifetime of every key a store read. Stores that support
// it fill it in during MGet when the caller attached one with WithExpiries.
type Expiries struct {
	mu  sync.Mutex
	ttl map[any]time.Duration
}

func WithExpiries(ctx context.Context) (context.Context, *Expiries) {
	e := &Expiries{ttl: make(map[any]time.Duration)}
	return context.WithValue(ctx, expiriesKey{}, e), e
}

// ExpiriesFrom returns the collector attached to ctx, or nil.
func ExpiriesFrom(ctx context.Context) *Expiries {
	e, _ := ctx.Value(expiriesKey{}).(*Expiries)
	return e
}

func (e *Expiries) Record(key any, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ttl[key] = ttl
}

// Get reports the remaining lifetime of key. ok is false when the store did not report one
// or the key has no expiry.
func (e *Expiries) Get(key any) (time.Duration, bool) {
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ttl, ok := e.ttl[key]
	return ttl, ok && ttl > 0
}
