// Package notify carries core events to an external notification sink.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Kind names an event type.
type Kind string

// Event kinds emitted by the core.
const (
	KindTeamSheetAssigned     Kind = "team_sheet.assigned"
	KindTeamSheetStarted      Kind = "team_sheet.started"
	KindResponseStatusChanged Kind = "response.status_changed"
	KindTeamSheetCompleted    Kind = "team_sheet.completed"
	KindLeaseSwept            Kind = "lease.swept"
)

// Event is one fire-and-forget notification. Zero fields are omitted on the wire.
type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	OccurredAt     time.Time `json:"occurred_at"`
	SheetID        int64     `json:"sheet_id,omitempty"`
	TeamSheetID    int64     `json:"team_sheet_id,omitempty"`
	TeamID         string    `json:"team_id,omitempty"`
	EntryID        int64     `json:"entry_id,omitempty"`
	ResponseID     int64     `json:"response_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Count          int64     `json:"count,omitempty"`
}

// NewEvent stamps a fresh event id.
func NewEvent(kind Kind, at time.Time) Event {
	return Event{ID: uuid.NewString(), Kind: kind, OccurredAt: at.UTC()}
}
