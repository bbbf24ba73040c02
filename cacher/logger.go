package cacher

import "context"

// Logger is the context-aware logging contract shared by every tier.
type Logger interface {
	CtxInfo(context.Context, string, ...interface{})
	CtxError(context.Context, string, ...interface{})
	CtxDebug(context.Context, string, ...interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) CtxInfo(context.Context, string, ...interface{})  {}
func (NopLogger) CtxError(context.Context, string, ...interface{}) {}
func (NopLogger) CtxDebug(context.Context, string, ...interface{}) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
