// Package logging provides trace IDs that follow a command through its handler.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

var (
	// tracePool reuses byte slices for ID generation
	tracePool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 8)
		},
	}
)

// NewTraceID generates a unique trace ID (16 hex chars).
func NewTraceID() string {
	buf := tracePool.Get().([]byte)
	defer tracePool.Put(buf)

	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// WithTraceID adds a trace ID to context.
// If id is empty, generates a new one.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewTraceID()
	}
	return context.WithValue(ctx, traceIDKey, id)
}

// GetTraceID extracts the trace ID from context.
// Returns empty string if not present.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}
