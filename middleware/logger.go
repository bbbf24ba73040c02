package middleware

import (
	"context"
	"time"

	"github.com/mbeoliero/learncache/cacher"
)

type loggerWrapper[K comparable, V any] struct {
	next   cacher.Interface[K, V]
	logger cacher.Logger
}

// LoggerMiddleware logs every call made to the wrapped store at debug level, and failures at error level.
func LoggerMiddleware[K comparable, V any](logger cacher.Logger) cacher.Middleware[K, V] {
	logger = cacher.OrNop(logger)
	return func(next cacher.Interface[K, V]) cacher.Interface[K, V] {
		return &loggerWrapper[K, V]{
			next:   next,
			logger: logger,
		}
	}
}

func (l *loggerWrapper[K, V]) done(ctx context.Context, op string, start time.Time, err error) {
	info := cacher.GetRunInfo(ctx)
	if err != nil {
		l.logger.CtxError(ctx, "[Logger] [Level: %d, Category: %s, Name: %s] <- %s: finished in %s with error: %v",
			info.Level(), info.Category(), l.next.Name(), op, time.Since(start), err)
		return
	}
	l.logger.CtxDebug(ctx, "[Logger] [Level: %d, Category: %s, Name: %s] <- %s: finished in %s successfully",
		info.Level(), info.Category(), l.next.Name(), op, time.Since(start))
}

func (l *loggerWrapper[K, V]) MGet(ctx context.Context, keys []K) (map[K]V, []K, error) {
	startTime := time.Now()
	found, missing, err := l.next.MGet(ctx, keys)
	if err == nil {
		info := cacher.GetRunInfo(ctx)
		l.logger.CtxDebug(ctx, "[Logger] [Level: %d, Category: %s, Name: %s] MGet %d keys. Found: %d, Missing: %v",
			info.Level(), info.Category(), l.next.Name(), len(keys), len(found), missing)
	}
	l.done(ctx, "MGet", startTime, err)
	return found, missing, err
}

func (l *loggerWrapper[K, V]) MSet(ctx context.Context, items map[K]V, ttl time.Duration) error {
	startTime := time.Now()
	err := l.next.MSet(ctx, items, ttl)
	l.done(ctx, "MSet", startTime, err)
	return err
}

func (l *loggerWrapper[K, V]) MDel(ctx context.Context, keys []K) error {
	startTime := time.Now()
	err := l.next.MDel(ctx, keys)
	l.done(ctx, "MDel", startTime, err)
	return err
}

func (l *loggerWrapper[K, V]) DelPattern(ctx context.Context, pattern string) (int, error) {
	startTime := time.Now()
	n, err := l.next.DelPattern(ctx, pattern)
	l.done(ctx, "DelPattern "+pattern, startTime, err)
	return n, err
}

func (l *loggerWrapper[K, V]) Name() string {
	return l.next.Name()
}
