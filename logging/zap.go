// Package logging adapts zap to the cache logging contract.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/mbeoliero/learncache/cacher"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds the process logger. level is one of DEBUG, INFO, WARN or ERROR.
func NewZap(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg.Build()
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger exposes l through the printf-style cacher.Logger interface.
func NewLogger(l *zap.Logger) cacher.Logger {
	if l == nil {
		return cacher.NopLogger{}
	}
	return &zapLogger{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z *zapLogger) with(ctx context.Context) *zap.SugaredLogger {
	info := cacher.GetRunInfo(ctx)
	if info.Level() == 0 && info.Category() == "" {
		return z.sugar
	}
	return z.sugar.With("cache_level", info.Level(), "category", info.Category())
}

func (z *zapLogger) CtxInfo(ctx context.Context, format string, args ...interface{}) {
	z.with(ctx).Infof(format, args...)
}

func (z *zapLogger) CtxError(ctx context.Context, format string, args ...interface{}) {
	z.with(ctx).Errorf(format, args...)
}

func (z *zapLogger) CtxDebug(ctx context.Context, format string, args ...interface{}) {
	z.with(ctx).Debugf(format, args...)
}
