package sqlite

import (
	"time"

	"advisory-tracker/internal/entities"
)

type sheetModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"not null"`
	CreatedBy string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
}

func (sheetModel) TableName() string { return "sheets" }

// TrackingColumns is embedded by entries and responses.
type TrackingColumns struct {
	Status               string            `gorm:"not null;default:''"`
	Comments             string            `gorm:"not null;default:''"`
	Deployed             entities.TriState `gorm:"type:char(1);not null"`
	Patched              entities.TriState `gorm:"type:char(1);not null"`
	CompensatingControls entities.TriState `gorm:"type:char(1);not null"`
	ControlDetails       string            `gorm:"not null;default:''"`
	EstimatedCompletion  *time.Time
	PatchedAt            *time.Time
}

type entryModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	SheetID   int64 `gorm:"not null;index:idx_entries_sheet"`
	Product   string
	Vendor    string
	CVE       string `gorm:"column:cve"`
	RiskLevel string
	Title     string
	Summary   string
	Reference string

	TrackingColumns `gorm:"embedded"`

	LockedBy *string `gorm:"index"`
	// LockedAt is unix nanoseconds so expiry comparisons stay numeric.
	LockedAt    *int64
	Completed   bool `gorm:"not null"`
	CompletedAt *time.Time
	CompletedBy *string
}

func (entryModel) TableName() string { return "entries" }

type teamModel struct {
	ID     string `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	Active bool   `gorm:"not null"`
}

func (teamModel) TableName() string { return "teams" }

type memberModel struct {
	TeamID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
}

func (memberModel) TableName() string { return "team_members" }

type teamSheetModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	SheetID     int64     `gorm:"not null;uniqueIndex:idx_team_sheets_sheet_team"`
	TeamID      string    `gorm:"not null;uniqueIndex:idx_team_sheets_sheet_team"`
	Status      string    `gorm:"not null"`
	AssignedAt  time.Time `gorm:"not null"`
	AssignedBy  string    `gorm:"not null"`
	StartedAt   *time.Time
	StartedBy   *string
	CompletedAt *time.Time
	CompletedBy *string
}

func (teamSheetModel) TableName() string { return "team_sheets" }

type responseModel struct {
	ID              int64 `gorm:"primaryKey;autoIncrement"`
	TeamSheetID     int64 `gorm:"not null;uniqueIndex:idx_responses_team_sheet_entry"`
	OriginalEntryID int64 `gorm:"not null;uniqueIndex:idx_responses_team_sheet_entry"`

	TrackingColumns `gorm:"embedded"`

	UpdatedBy *string
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (responseModel) TableName() string { return "responses" }

func models() []any {
	return []any{&sheetModel{}, &entryModel{}, &teamModel{}, &memberModel{}, &teamSheetModel{}, &responseModel{}}
}

func fromTracking(t entities.Tracking) TrackingColumns {
	return TrackingColumns{
		Status:               t.Status,
		Comments:             t.Comments,
		Deployed:             t.Deployed,
		Patched:              t.Patched,
		CompensatingControls: t.CompensatingControls,
		ControlDetails:       t.ControlDetails,
		EstimatedCompletion:  t.EstimatedCompletion,
		PatchedAt:            t.PatchedAt,
	}
}

func (c TrackingColumns) tracking() entities.Tracking {
	return entities.Tracking{
		Status:               c.Status,
		Comments:             c.Comments,
		Deployed:             c.Deployed,
		Patched:              c.Patched,
		CompensatingControls: c.CompensatingControls,
		ControlDetails:       c.ControlDetails,
		EstimatedCompletion:  utc(c.EstimatedCompletion),
		PatchedAt:            utc(c.PatchedAt),
	}
}

// updates lists every tracking column for a gorm map update; nil dates become NULL.
func (c TrackingColumns) updates() map[string]any {
	return map[string]any{
		"status":                c.Status,
		"comments":              c.Comments,
		"deployed":              c.Deployed,
		"patched":               c.Patched,
		"compensating_controls": c.CompensatingControls,
		"control_details":       c.ControlDetails,
		"estimated_completion":  c.EstimatedCompletion,
		"patched_at":            c.PatchedAt,
	}
}

func (m entryModel) entity() entities.Entry {
	e := entities.Entry{
		ID:      m.ID,
		SheetID: m.SheetID,
		Advisory: entities.Advisory{
			Product:   m.Product,
			Vendor:    m.Vendor,
			CVE:       m.CVE,
			RiskLevel: m.RiskLevel,
			Title:     m.Title,
			Summary:   m.Summary,
			Reference: m.Reference,
		},
		Tracking:    m.TrackingColumns.tracking(),
		Completed:   m.Completed,
		CompletedAt: utc(m.CompletedAt),
		CompletedBy: deref(m.CompletedBy),
	}
	if m.LockedBy != nil {
		e.Lease.HeldBy = *m.LockedBy
	}
	if m.LockedAt != nil {
		at := time.Unix(0, *m.LockedAt).UTC()
		e.Lease.HeldAt = &at
	}
	return e
}

func (m teamSheetModel) entity(teamName string) entities.TeamSheet {
	return entities.TeamSheet{
		ID:          m.ID,
		SheetID:     m.SheetID,
		TeamID:      m.TeamID,
		TeamName:    teamName,
		Status:      entities.TeamSheetStatus(m.Status),
		AssignedAt:  m.AssignedAt.UTC(),
		AssignedBy:  m.AssignedBy,
		StartedAt:   utc(m.StartedAt),
		StartedBy:   deref(m.StartedBy),
		CompletedAt: utc(m.CompletedAt),
		CompletedBy: deref(m.CompletedBy),
	}
}

func (m responseModel) entity() entities.Response {
	return entities.Response{
		ID:              m.ID,
		TeamSheetID:     m.TeamSheetID,
		OriginalEntryID: m.OriginalEntryID,
		Tracking:        m.TrackingColumns.tracking(),
		UpdatedBy:       deref(m.UpdatedBy),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
