package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext carries correlation ids for logs.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// EnsureTrace returns ctx unchanged when it already carries a trace,
// otherwise attaches a fresh one. Background jobs call this per batch.
func EnsureTrace(ctx context.Context) context.Context {
	if GetTrace(ctx) != nil {
		return ctx
	}
	return WithTrace(ctx, &TraceContext{
		TraceID:   uuid.NewString(),
		RequestID: uuid.NewString(),
	})
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetTraceID returns trace ID from context or empty string.
func GetTraceID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.TraceID
	}
	return ""
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
