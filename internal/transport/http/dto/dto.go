// Package dto holds the JSON bodies exchanged over the HTTP API.
package dto

import (
	"time"

	"advisory-tracker/internal/entities"
)

// ErrorCode classifies an error response.
type ErrorCode string

// Error codes.
const (
	NOTFOUND        ErrorCode = "NOT_FOUND"
	LOCKCONFLICT    ErrorCode = "LOCK_CONFLICT"
	FORBIDDEN       ErrorCode = "FORBIDDEN"
	INVALIDARGUMENT ErrorCode = "INVALID_ARGUMENT"
	UNAUTHENTICATED ErrorCode = "UNAUTHENTICATED"
	INTERNAL        ErrorCode = "INTERNAL"
)

// ErrorBody is the error payload.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// LockConflictDetails tells the caller who holds the entry and until when.
type LockConflictDetails struct {
	EntryID   int64     `json:"entry_id"`
	HeldBy    string    `json:"held_by"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Tracking is the remediation state of an entry or response. Dates are YYYY-MM-DD.
type Tracking struct {
	Status               string            `json:"status"`
	Comments             string            `json:"comments"`
	Deployed             entities.TriState `json:"deployed"`
	Patched              entities.TriState `json:"patched"`
	CompensatingControls entities.TriState `json:"compensating_controls"`
	ControlDetails       string            `json:"control_details"`
	EstimatedCompletion  *string           `json:"estimated_completion"`
	PatchedAt            *string           `json:"patched_at"`
}

// TrackingFields is a partial tracking update. Absent or null fields are left unchanged,
// except dates where an empty string clears the value.
type TrackingFields struct {
	Status               *string            `json:"status,omitempty"`
	Comments             *string            `json:"comments,omitempty"`
	Deployed             *entities.TriState `json:"deployed,omitempty"`
	Patched              *entities.TriState `json:"patched,omitempty"`
	CompensatingControls *entities.TriState `json:"compensating_controls,omitempty"`
	ControlDetails       *string            `json:"control_details,omitempty"`
	EstimatedCompletion  *string            `json:"estimated_completion,omitempty"`
	PatchedAt            *string            `json:"patched_at,omitempty"`
}

// Lock describes the lease on an entry.
type Lock struct {
	HeldBy    string    `json:"held_by"`
	HeldAt    time.Time `json:"held_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Entry is a master entry or a team projection of it.
type Entry struct {
	ID           int64      `json:"entry_id"`
	SheetID      int64      `json:"sheet_id"`
	Product      string     `json:"product"`
	Vendor       string     `json:"vendor"`
	CVE          string     `json:"cve"`
	RiskLevel    string     `json:"risk_level"`
	Title        string     `json:"title,omitempty"`
	Summary      string     `json:"summary,omitempty"`
	Reference    string     `json:"reference,omitempty"`
	Tracking     Tracking   `json:"tracking"`
	AssignedTeam string     `json:"assigned_team,omitempty"`
	Lock         *Lock      `json:"lock,omitempty"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CompletedBy  string     `json:"completed_by,omitempty"`
}

// NewEntry is one row of a sheet upload.
type NewEntry struct {
	Product   string         `json:"product"`
	Vendor    string         `json:"vendor"`
	CVE       string         `json:"cve"`
	RiskLevel string         `json:"risk_level"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary"`
	Reference string         `json:"reference"`
	Tracking  TrackingFields `json:"tracking"`
}

// CreateSheetRequest uploads a sheet with its entries.
type CreateSheetRequest struct {
	Title   string     `json:"title"`
	Entries []NewEntry `json:"entries"`
}

// Sheet describes an uploaded sheet.
type Sheet struct {
	ID         int64     `json:"sheet_id"`
	Title      string    `json:"title"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	EntryCount int       `json:"entry_count"`
}

// Team is a team with its members.
type Team struct {
	ID      string   `json:"team_id"`
	Name    string   `json:"name"`
	Active  bool     `json:"active"`
	Members []string `json:"members"`
}

// TeamSheet is the assignment of a sheet to a team.
type TeamSheet struct {
	ID          int64      `json:"team_sheet_id"`
	SheetID     int64      `json:"sheet_id"`
	TeamID      string     `json:"team_id"`
	TeamName    string     `json:"team_name"`
	Status      string     `json:"status"`
	AssignedAt  time.Time  `json:"assigned_at"`
	AssignedBy  string     `json:"assigned_by"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	StartedBy   string     `json:"started_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy string     `json:"completed_by,omitempty"`
}

// AssignRequest lists the teams a sheet goes to.
type AssignRequest struct {
	TeamIDs []string `json:"team_ids"`
}

// AssignResponse lists created or existing team sheets and the teams that failed.
type AssignResponse struct {
	TeamSheets  []TeamSheet `json:"team_sheets"`
	FailedTeams []string    `json:"failed_teams,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// InitResponsesRequest names the sheet a team sheet belongs to.
type InitResponsesRequest struct {
	SheetID int64 `json:"sheet_id"`
}

// Response is a team's working copy of an entry.
type Response struct {
	ID          int64     `json:"response_id"`
	TeamSheetID int64     `json:"team_sheet_id"`
	EntryID     int64     `json:"entry_id"`
	Tracking    Tracking  `json:"tracking"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Submission is one item of a batch submit.
type Submission struct {
	EntryID int64 `json:"entry_id"`
	TrackingFields
}

// SubmitRequest carries a batch of submissions as an array or as an object keyed by entry id.
type SubmitRequest struct {
	Responses Submissions `json:"responses"`
}

// Ack acknowledges a command without a resource body.
type Ack struct {
	Status string `json:"status"`
}

// SweepResponse reports how many leases a sweep released.
type SweepResponse struct {
	Released int64 `json:"released"`
}
