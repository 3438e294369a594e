package postgres

import (
	"advisory-tracker/internal/entities"
)

const (
	entryColumns = `id, sheet_id, product, vendor, cve, risk_level, title, summary, reference,
status, comments, deployed, patched, compensating_controls, control_details, estimated_completion, patched_at,
locked_by, locked_at, completed, completed_at, completed_by`

	teamSheetColumns = `ts.id, ts.sheet_id, ts.team_id, t.name, ts.status, ts.assigned_at, ts.assigned_by,
ts.started_at, ts.started_by, ts.completed_at, ts.completed_by`

	responseColumns = `id, team_sheet_id, original_entry_id, status, comments, deployed, patched,
compensating_controls, control_details, estimated_completion, patched_at, updated_by, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entities.Entry, error) {
	var (
		e           entities.Entry
		lockedBy    *string
		completedBy *string
	)
	err := row.Scan(
		&e.ID, &e.SheetID,
		&e.Advisory.Product, &e.Advisory.Vendor, &e.Advisory.CVE, &e.Advisory.RiskLevel,
		&e.Advisory.Title, &e.Advisory.Summary, &e.Advisory.Reference,
		&e.Tracking.Status, &e.Tracking.Comments, &e.Tracking.Deployed, &e.Tracking.Patched,
		&e.Tracking.CompensatingControls, &e.Tracking.ControlDetails,
		&e.Tracking.EstimatedCompletion, &e.Tracking.PatchedAt,
		&lockedBy, &e.Lease.HeldAt, &e.Completed, &e.CompletedAt, &completedBy,
	)
	if err != nil {
		return e, err
	}
	e.Lease.HeldBy = deref(lockedBy)
	e.CompletedBy = deref(completedBy)
	return e, nil
}

func scanTeamSheet(row rowScanner) (entities.TeamSheet, error) {
	var (
		ts          entities.TeamSheet
		startedBy   *string
		completedBy *string
	)
	err := row.Scan(
		&ts.ID, &ts.SheetID, &ts.TeamID, &ts.TeamName, &ts.Status, &ts.AssignedAt, &ts.AssignedBy,
		&ts.StartedAt, &startedBy, &ts.CompletedAt, &completedBy,
	)
	if err != nil {
		return ts, err
	}
	ts.StartedBy = deref(startedBy)
	ts.CompletedBy = deref(completedBy)
	return ts, nil
}

func scanResponse(row rowScanner) (entities.Response, error) {
	var (
		r         entities.Response
		updatedBy *string
	)
	err := row.Scan(
		&r.ID, &r.TeamSheetID, &r.OriginalEntryID,
		&r.Tracking.Status, &r.Tracking.Comments, &r.Tracking.Deployed, &r.Tracking.Patched,
		&r.Tracking.CompensatingControls, &r.Tracking.ControlDetails,
		&r.Tracking.EstimatedCompletion, &r.Tracking.PatchedAt,
		&updatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return r, err
	}
	r.UpdatedBy = deref(updatedBy)
	return r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
