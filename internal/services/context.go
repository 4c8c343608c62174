package services

import "context"

type contextKey string

const (
	artistIDKey  contextKey = "artist_id"
	operationKey contextKey = "operation"
	requestIDKey contextKey = "request_id"
)

// WithArtistID annotates context with the owning artist identifier.
func WithArtistID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, artistIDKey, id)
}

// ArtistIDFromContext extracts the artist identifier if present.
func ArtistIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(artistIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithOperation annotates context with the pending-release operation name
// (reconcile, project, grabbed, ...).
func WithOperation(ctx context.Context, operation string) context.Context {
	if operation == "" {
		return ctx
	}
	return context.WithValue(ctx, operationKey, operation)
}

// OperationFromContext returns the operation name if present.
func OperationFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(operationKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
