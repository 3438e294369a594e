package entities

import "time"

// TeamSheetStatus enumerates team sheet lifecycle states.
type TeamSheetStatus string

const (
	// StatusAssigned marks a sheet handed to a team but untouched.
	StatusAssigned TeamSheetStatus = "assigned"
	// StatusInProgress marks a sheet with at least one response write.
	StatusInProgress TeamSheetStatus = "in_progress"
	// StatusCompleted marks a sheet the team has finished.
	StatusCompleted TeamSheetStatus = "completed"
)

func (s TeamSheetStatus) rank() int {
	switch s {
	case StatusAssigned:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

// CanAdvanceTo reports whether moving to next keeps the status monotonic.
func (s TeamSheetStatus) CanAdvanceTo(next TeamSheetStatus) bool {
	return next.rank() > s.rank()
}

// Valid reports whether s is a known status.
func (s TeamSheetStatus) Valid() bool {
	return s.rank() > 0
}

// TeamSheet binds one sheet to one team.
type TeamSheet struct {
	ID          int64
	SheetID     int64
	TeamID      string
	TeamName    string
	Status      TeamSheetStatus
	AssignedAt  time.Time
	AssignedBy  string
	StartedAt   *time.Time
	StartedBy   string
	CompletedAt *time.Time
	CompletedBy string
}

// Response is a team's shadow copy of one entry's tracking fields.
type Response struct {
	ID              int64
	TeamSheetID     int64
	OriginalEntryID int64
	Tracking        Tracking
	UpdatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResponseUpdate is the field set a team member may change on a response.
type ResponseUpdate struct {
	TrackingUpdate
}

// ResponseSubmission is one item of a batch submit, keyed by the original entry.
type ResponseSubmission struct {
	EntryID int64
	Update  TrackingUpdate
}

// ResponseChange is the outcome of a single response update.
type ResponseChange struct {
	Response       Response
	PreviousStatus string
	TeamSheet      TeamSheet
	// Started is true when this write moved the team sheet out of assigned.
	Started bool
}

// BatchResult is the outcome of a batch submit.
type BatchResult struct {
	TeamSheet     TeamSheet
	Upserted      int
	ResponseCount int64
	// Completed is true when this submit moved the team sheet to completed.
	Completed bool
}
