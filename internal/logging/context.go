package logging

import (
	"context"
	"log/slog"

	"crate/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldArtistID is the standardized structured logging key for owning artist identifiers.
	FieldArtistID = "artist_id"
	// FieldAlbumID is the standardized structured logging key for album identifiers.
	FieldAlbumID = "album_id"
	// FieldPendingID is the standardized structured logging key for pending release identifiers.
	FieldPendingID = "pending_id"
	// FieldOperation is the standardized structured logging key for pending-release operations.
	FieldOperation = "operation"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldRelease is the standardized structured logging key for raw release titles.
	FieldRelease = "release"
	// FieldReason is the standardized structured logging key for pending reasons.
	FieldReason = "reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.ArtistIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldArtistID, id))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
