package logging

import (
	"context"
	"log/slog"

	"yodel/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent = "component"
	FieldTrackID   = "track_id"
	FieldStage     = "stage"
	FieldRequestID = "request_id"
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind of the logged error.
	FieldErrorKind = "error_kind"
	// FieldImpact states what a warning means for the track.
	FieldImpact = "impact"
)

// WithContext returns logger extended with the track id, stage and request id
// found in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.TrackIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldTrackID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		args = append(args, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRequestID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
