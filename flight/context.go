package flight

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey int

const (
	requestMetaKey contextKey = iota
)

// Metadata header keys for observability.
const (
	// HeaderTraceID is the gRPC metadata header for distributed trace identifier.
	HeaderTraceID = "airportlog-trace-id"
	// HeaderSessionID is the gRPC metadata header for client session identifier.
	HeaderSessionID = "airportlog-client-session-id"
)

// ContextMeta carries request metadata through the handlers.
type ContextMeta struct {
	TraceID   string
	SessionID string
}

// WithContextMeta stores meta in ctx.
func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey, &meta)
}

// MetaFromContext returns the request metadata, or nil when none is set.
func MetaFromContext(ctx context.Context) *ContextMeta {
	meta, _ := ctx.Value(requestMetaKey).(*ContextMeta)
	return meta
}

// TraceIDFromContext returns the trace ID from context, or empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	if meta := MetaFromContext(ctx); meta != nil {
		return meta.TraceID
	}
	return ""
}

// SessionIDFromContext returns the session ID from context, or empty string if not set.
func SessionIDFromContext(ctx context.Context) string {
	if meta := MetaFromContext(ctx); meta != nil {
		return meta.SessionID
	}
	return ""
}

// EnrichContextMetadata extracts metadata from gRPC context and
// returns a new context with the metadata stored. Requests without a trace
// ID get a fresh one so log lines of one call can be correlated.
// If the context is already enriched, it is returned unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if MetaFromContext(ctx) != nil {
		return ctx
	}

	var meta ContextMeta
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(HeaderTraceID); len(values) > 0 {
			meta.TraceID = values[0]
		}
		if values := md.Get(HeaderSessionID); len(values) > 0 {
			meta.SessionID = values[0]
		}
	}
	if meta.TraceID == "" {
		meta.TraceID = uuid.NewString()
	}

	return WithContextMeta(ctx, meta)
}
