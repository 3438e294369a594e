package notify

import (
	"context"

	"go.uber.org/zap"
)

// Sink receives events after the state change they describe has committed.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(context.Context, Event) error { return nil }

// LogSink writes events to the structured log.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink returns a sink logging under "notify".
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log.Named("notify")}
}

// Emit implements Sink.
func (s *LogSink) Emit(_ context.Context, e Event) error {
	s.log.Infow("notification",
		"event_id", e.ID,
		"kind", e.Kind,
		"sheet_id", e.SheetID,
		"team_sheet_id", e.TeamSheetID,
		"team_id", e.TeamID,
		"entry_id", e.EntryID,
		"response_id", e.ResponseID,
		"user_id", e.UserID,
		"status", e.Status,
		"previous_status", e.PreviousStatus,
		"count", e.Count,
	)
	return nil
}
