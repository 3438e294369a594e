package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
)

const (
	countResponsesQuery = `SELECT COUNT(*) FROM responses WHERE team_sheet_id=$1`
	seedResponsesQuery  = `
INSERT INTO responses(team_sheet_id, original_entry_id, status, comments, deployed, patched,
    compensating_controls, control_details, estimated_completion, patched_at, created_at, updated_at)
SELECT $1, e.id, e.status, e.comments, e.deployed, e.patched, e.compensating_controls, e.control_details,
    e.estimated_completion, e.patched_at, $2, $2
FROM entries e WHERE e.sheet_id=$3 ORDER BY e.id
ON CONFLICT (team_sheet_id, original_entry_id) DO NOTHING`
	listResponsesQuery      = `SELECT ` + responseColumns + ` FROM responses WHERE team_sheet_id=$1 ORDER BY original_entry_id`
	selectResponseForUpdate = `SELECT ` + responseColumns + ` FROM responses WHERE id=$1 FOR UPDATE`
	selectResponseTeamSheet = `SELECT team_sheet_id FROM responses WHERE id=$1`
	findResponseForUpdate   = `SELECT ` + responseColumns + ` FROM responses WHERE team_sheet_id=$1 AND original_entry_id=$2 FOR UPDATE`
	updateResponseQuery     = `
UPDATE responses SET status=$2, comments=$3, deployed=$4, patched=$5, compensating_controls=$6,
    control_details=$7, estimated_completion=$8, patched_at=$9, updated_by=$10, updated_at=$11
WHERE id=$1
RETURNING ` + responseColumns
	insertResponseQuery = `
INSERT INTO responses(team_sheet_id, original_entry_id, status, comments, deployed, patched,
    compensating_controls, control_details, estimated_completion, patched_at, updated_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
RETURNING ` + responseColumns
	selectEntryTrackingQuery = `
SELECT status, comments, deployed, patched, compensating_controls, control_details, estimated_completion, patched_at
FROM entries WHERE id=$1 AND sheet_id=$2`
	startTeamSheetQuery = `
UPDATE team_sheets SET status='in_progress', started_at=$2, started_by=$3
WHERE id=$1 AND status='assigned'`
	completeTeamSheetQuery = `
UPDATE team_sheets SET status='completed',
    started_at=COALESCE(started_at, $2), started_by=COALESCE(started_by, $3),
    completed_at=$2, completed_by=$3
WHERE id=$1 AND status<>'completed'`
	summarizeSheetQuery = `
SELECT ts.id, ts.team_id, t.name, ts.status, ts.assigned_at, ts.started_at, ts.completed_at,
    COUNT(r.id),
    COUNT(r.id) FILTER (WHERE LOWER(TRIM(r.status)) = ANY($2))
FROM team_sheets ts
JOIN teams t ON t.id = ts.team_id
LEFT JOIN responses r ON r.team_sheet_id = ts.id
WHERE ts.sheet_id=$1
GROUP BY ts.id, t.name
ORDER BY ts.team_id`
)

// InitializeResponses seeds one response per sheet entry unless the team sheet already has responses.
// The bool result is true when rows were created by this call.
func (p *Postgres) InitializeResponses(ctx context.Context, teamSheetID, sheetID int64, now time.Time) ([]entities.Response, bool, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts, err := p.lockTeamSheet(ctx, tx, teamSheetID)
	if err != nil {
		return nil, false, err
	}
	if ts.SheetID != sheetID {
		return nil, false, fmt.Errorf("%w: team sheet %d belongs to sheet %d", entities.ErrInvalidArgument, teamSheetID, ts.SheetID)
	}

	var existing int64
	if err := tx.QueryRow(ctx, countResponsesQuery, teamSheetID).Scan(&existing); err != nil {
		return nil, false, fmt.Errorf("count responses: %w", err)
	}

	created := false
	if existing == 0 {
		tag, err := tx.Exec(ctx, seedResponsesQuery, teamSheetID, now, sheetID)
		if err != nil {
			p.log.Errorw("failed to seed responses", "error", err, "team_sheet_id", teamSheetID)
			return nil, false, fmt.Errorf("seed responses: %w", err)
		}
		created = tag.RowsAffected() > 0
	}

	rows, err := tx.Query(ctx, listResponsesQuery, teamSheetID)
	if err != nil {
		return nil, false, fmt.Errorf("list responses: %w", err)
	}
	res, err := collect(rows, scanResponse)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	if created {
		p.log.Infow("responses initialized", "team_sheet_id", teamSheetID, "count", len(res))
	}
	return res, created, nil
}

// ListResponses returns a team sheet's responses ordered by original entry.
func (p *Postgres) ListResponses(ctx context.Context, teamSheetID int64) ([]entities.Response, error) {
	rows, err := p.db.Query(ctx, listResponsesQuery, teamSheetID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return collect(rows, scanResponse)
}

// ResponseTeamSheet returns the team sheet owning a response.
func (p *Postgres) ResponseTeamSheet(ctx context.Context, responseID int64) (*entities.TeamSheet, error) {
	var teamSheetID int64
	if err := p.db.QueryRow(ctx, selectResponseTeamSheet, responseID).Scan(&teamSheetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrResponseNotFound
		}
		return nil, fmt.Errorf("response lookup: %w", err)
	}
	return p.GetTeamSheet(ctx, teamSheetID)
}

// UpdateResponse applies a member's fields and starts the team sheet on its first write.
func (p *Postgres) UpdateResponse(ctx context.Context, responseID int64, update entities.TrackingUpdate, userID string, now time.Time) (*entities.ResponseChange, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var teamSheetID int64
	if err := tx.QueryRow(ctx, selectResponseTeamSheet, responseID).Scan(&teamSheetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrResponseNotFound
		}
		return nil, fmt.Errorf("response lookup: %w", err)
	}
	// Team sheet first, then response: the same order SubmitResponses uses.
	ts, err := p.lockTeamSheet(ctx, tx, teamSheetID)
	if err != nil {
		return nil, err
	}
	current, err := scanResponse(tx.QueryRow(ctx, selectResponseForUpdate, responseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrResponseNotFound
		}
		return nil, fmt.Errorf("get response: %w", err)
	}

	change := &entities.ResponseChange{PreviousStatus: current.Tracking.Status}
	t := current.Tracking
	update.ApplyTo(&t)
	saved, err := scanResponse(tx.QueryRow(ctx, updateResponseQuery, responseID,
		t.Status, t.Comments, t.Deployed, t.Patched, t.CompensatingControls,
		t.ControlDetails, t.EstimatedCompletion, t.PatchedAt, userID, now))
	if err != nil {
		p.log.Errorw("failed to update response", "error", err, "response_id", responseID)
		return nil, fmt.Errorf("update response: %w", err)
	}
	change.Response = saved

	if ts.Status == entities.StatusAssigned {
		tag, err := tx.Exec(ctx, startTeamSheetQuery, ts.ID, now, userID)
		if err != nil {
			return nil, fmt.Errorf("start team sheet: %w", err)
		}
		if tag.RowsAffected() > 0 {
			change.Started = true
			ts.Status = entities.StatusInProgress
			ts.StartedAt = &now
			ts.StartedBy = userID
		}
	}
	change.TeamSheet = *ts

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("response updated", "response_id", responseID, "user_id", userID, "team_sheet_started", change.Started)
	return change, nil
}

// SubmitResponses upserts every item and completes the team sheet in one transaction.
func (p *Postgres) SubmitResponses(ctx context.Context, teamSheetID int64, items []entities.ResponseSubmission, userID string, now time.Time) (*entities.BatchResult, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts, err := p.lockTeamSheet(ctx, tx, teamSheetID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := p.upsertResponse(ctx, tx, ts, item, userID, now); err != nil {
			return nil, err
		}
	}

	res := &entities.BatchResult{Upserted: len(items)}
	tag, err := tx.Exec(ctx, completeTeamSheetQuery, teamSheetID, now, userID)
	if err != nil {
		return nil, fmt.Errorf("complete team sheet: %w", err)
	}
	res.Completed = tag.RowsAffected() > 0

	if err := tx.QueryRow(ctx, countResponsesQuery, teamSheetID).Scan(&res.ResponseCount); err != nil {
		return nil, fmt.Errorf("count responses: %w", err)
	}
	updated, err := scanTeamSheet(tx.QueryRow(ctx, selectTeamSheetQuery, teamSheetID))
	if err != nil {
		return nil, fmt.Errorf("read team sheet: %w", err)
	}
	res.TeamSheet = updated

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("responses submitted", "team_sheet_id", teamSheetID, "items", len(items), "user_id", userID)
	return res, nil
}

func (p *Postgres) upsertResponse(ctx context.Context, tx pgx.Tx, ts *entities.TeamSheet, item entities.ResponseSubmission, userID string, now time.Time) error {
	current, err := scanResponse(tx.QueryRow(ctx, findResponseForUpdate, ts.ID, item.EntryID))
	switch {
	case err == nil:
		t := current.Tracking
		item.Update.ApplyTo(&t)
		if _, err := tx.Exec(ctx, updateResponseQuery, current.ID,
			t.Status, t.Comments, t.Deployed, t.Patched, t.CompensatingControls,
			t.ControlDetails, t.EstimatedCompletion, t.PatchedAt, userID, now); err != nil {
			return fmt.Errorf("update response for entry %d: %w", item.EntryID, err)
		}
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("find response for entry %d: %w", item.EntryID, err)
	}

	var t entities.Tracking
	if err := tx.QueryRow(ctx, selectEntryTrackingQuery, item.EntryID, ts.SheetID).Scan(
		&t.Status, &t.Comments, &t.Deployed, &t.Patched, &t.CompensatingControls,
		&t.ControlDetails, &t.EstimatedCompletion, &t.PatchedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %d on sheet %d", entities.ErrEntryNotFound, item.EntryID, ts.SheetID)
		}
		return fmt.Errorf("seed entry %d: %w", item.EntryID, err)
	}
	item.Update.ApplyTo(&t)
	if _, err := tx.Exec(ctx, insertResponseQuery, ts.ID, item.EntryID,
		t.Status, t.Comments, t.Deployed, t.Patched, t.CompensatingControls,
		t.ControlDetails, t.EstimatedCompletion, t.PatchedAt, userID, now); err != nil {
		return fmt.Errorf("insert response for entry %d: %w", item.EntryID,
			constraintError(err, entities.ErrEntryNotFound, entities.ErrInvalidArgument))
	}
	return nil
}

// CompleteTeamSheet moves a team sheet to completed. The bool is false when it already was.
func (p *Postgres) CompleteTeamSheet(ctx context.Context, teamSheetID int64, userID string, now time.Time) (*entities.TeamSheet, bool, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := p.lockTeamSheet(ctx, tx, teamSheetID); err != nil {
		return nil, false, err
	}
	tag, err := tx.Exec(ctx, completeTeamSheetQuery, teamSheetID, now, userID)
	if err != nil {
		return nil, false, fmt.Errorf("complete team sheet: %w", err)
	}
	ts, err := scanTeamSheet(tx.QueryRow(ctx, selectTeamSheetQuery, teamSheetID))
	if err != nil {
		return nil, false, fmt.Errorf("read team sheet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return &ts, tag.RowsAffected() > 0, nil
}

// CountResponses returns how many responses a team sheet holds.
func (p *Postgres) CountResponses(ctx context.Context, teamSheetID int64) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, countResponsesQuery, teamSheetID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

// SummarizeSheet returns per-team response counts for a sheet.
func (p *Postgres) SummarizeSheet(ctx context.Context, sheetID int64) ([]entities.TeamSummary, error) {
	if err := p.ensureSheet(ctx, p.db, sheetID); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(ctx, summarizeSheetQuery, sheetID, entities.CompletedResponseStatuses)
	if err != nil {
		return nil, fmt.Errorf("summarize sheet: %w", err)
	}
	return collect(rows, func(row rowScanner) (entities.TeamSummary, error) {
		var s entities.TeamSummary
		err := row.Scan(&s.TeamSheetID, &s.TeamID, &s.TeamName, &s.Status, &s.AssignedAt,
			&s.StartedAt, &s.CompletedAt, &s.TotalResponses, &s.CompletedResponses)
		return s, err
	})
}
