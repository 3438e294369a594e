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
	teamExistsQuery      = `SELECT EXISTS(SELECT 1 FROM teams WHERE id=$1)`
	insertTeamSheetQuery = `
INSERT INTO team_sheets(sheet_id, team_id, status, assigned_at, assigned_by)
VALUES ($1, $2, 'assigned', $3, $4)
ON CONFLICT (sheet_id, team_id) DO NOTHING`
	teamSheetFrom         = ` FROM team_sheets ts JOIN teams t ON t.id = ts.team_id `
	selectTeamSheetQuery  = `SELECT ` + teamSheetColumns + teamSheetFrom + `WHERE ts.id=$1`
	findTeamSheetQuery    = `SELECT ` + teamSheetColumns + teamSheetFrom + `WHERE ts.sheet_id=$1 AND ts.team_id=$2`
	listTeamSheetsQuery   = `SELECT ` + teamSheetColumns + teamSheetFrom + `WHERE ts.sheet_id=$1 ORDER BY ts.team_id`
	lockTeamSheetRowQuery = `SELECT id FROM team_sheets WHERE id=$1 FOR UPDATE`
)

// AssignTeam creates the team sheet for (sheetID, teamID) unless it exists.
// The bool result is true when a row was created by this call.
func (p *Postgres) AssignTeam(ctx context.Context, sheetID int64, teamID, actorID string, now time.Time) (*entities.TeamSheet, bool, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := p.ensureSheet(ctx, tx, sheetID); err != nil {
		return nil, false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, teamExistsQuery, teamID).Scan(&exists); err != nil {
		return nil, false, fmt.Errorf("team lookup: %w", err)
	}
	if !exists {
		return nil, false, entities.ErrTeamNotFound
	}

	tag, err := tx.Exec(ctx, insertTeamSheetQuery, sheetID, teamID, now, actorID)
	if err != nil {
		p.log.Errorw("failed to insert team sheet", "error", err, "sheet_id", sheetID, "team_id", teamID)
		return nil, false, fmt.Errorf("insert team sheet: %w", constraintError(err, entities.ErrTeamNotFound, nil))
	}
	created := tag.RowsAffected() > 0

	ts, err := scanTeamSheet(tx.QueryRow(ctx, findTeamSheetQuery, sheetID, teamID))
	if err != nil {
		return nil, false, fmt.Errorf("read team sheet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}

	if created {
		p.log.Infow("sheet assigned", "sheet_id", sheetID, "team_id", teamID, "actor", actorID)
	}
	return &ts, created, nil
}

// GetTeamSheet fetches a team sheet by id.
func (p *Postgres) GetTeamSheet(ctx context.Context, teamSheetID int64) (*entities.TeamSheet, error) {
	ts, err := scanTeamSheet(p.db.QueryRow(ctx, selectTeamSheetQuery, teamSheetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTeamSheetNotFound
		}
		return nil, fmt.Errorf("get team sheet: %w", err)
	}
	return &ts, nil
}

// FindTeamSheet fetches the assignment of sheetID to teamID.
func (p *Postgres) FindTeamSheet(ctx context.Context, sheetID int64, teamID string) (*entities.TeamSheet, error) {
	ts, err := scanTeamSheet(p.db.QueryRow(ctx, findTeamSheetQuery, sheetID, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTeamSheetNotFound
		}
		return nil, fmt.Errorf("find team sheet: %w", err)
	}
	return &ts, nil
}

// ListTeamSheets returns every assignment of a sheet.
func (p *Postgres) ListTeamSheets(ctx context.Context, sheetID int64) ([]entities.TeamSheet, error) {
	rows, err := p.db.Query(ctx, listTeamSheetsQuery, sheetID)
	if err != nil {
		return nil, fmt.Errorf("list team sheets: %w", err)
	}
	return collect(rows, scanTeamSheet)
}

// lockTeamSheet takes the row lock that serializes writers of one team sheet.
func (p *Postgres) lockTeamSheet(ctx context.Context, tx pgx.Tx, teamSheetID int64) (*entities.TeamSheet, error) {
	var id int64
	if err := tx.QueryRow(ctx, lockTeamSheetRowQuery, teamSheetID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrTeamSheetNotFound
		}
		return nil, fmt.Errorf("lock team sheet: %w", err)
	}
	ts, err := scanTeamSheet(tx.QueryRow(ctx, selectTeamSheetQuery, teamSheetID))
	if err != nil {
		return nil, fmt.Errorf("read team sheet: %w", err)
	}
	return &ts, nil
}
