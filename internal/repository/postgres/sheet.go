package postgres

import (
	"context"
	"errors"
	"fmt"

	"advisory-tracker/internal/entities"

	"github.com/jackc/pgx/v5"
)

const (
	insertSheetQuery = `INSERT INTO sheets(title, created_by) VALUES ($1, $2) RETURNING id, created_at`
	insertEntryQuery = `
INSERT INTO entries(sheet_id, product, vendor, cve, risk_level, title, summary, reference,
    status, comments, deployed, patched, compensating_controls, control_details, estimated_completion, patched_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	selectSheetQuery = `
SELECT s.id, s.title, s.created_by, s.created_at, (SELECT COUNT(*) FROM entries e WHERE e.sheet_id = s.id)
FROM sheets s WHERE s.id=$1`
	deleteSheetQuery = `DELETE FROM sheets WHERE id=$1`
	selectEntryQuery = `SELECT ` + entryColumns + ` FROM entries WHERE id=$1`
	selectEntriesSQL = `SELECT ` + entryColumns + ` FROM entries WHERE sheet_id=$1 ORDER BY id`
	sheetExistsQuery = `SELECT EXISTS(SELECT 1 FROM sheets WHERE id=$1)`
)

// CreateSheet inserts a sheet and its master entries in one transaction.
func (p *Postgres) CreateSheet(ctx context.Context, sheet entities.Sheet, entries []entities.Entry) (*entities.Sheet, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, insertSheetQuery, sheet.Title, sheet.CreatedBy).Scan(&sheet.ID, &sheet.CreatedAt); err != nil {
		p.log.Errorw("failed to insert sheet", "error", err, "title", sheet.Title)
		return nil, fmt.Errorf("insert sheet: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		a, t := e.Advisory, e.Tracking
		batch.Queue(insertEntryQuery, sheet.ID, a.Product, a.Vendor, a.CVE, a.RiskLevel, a.Title, a.Summary, a.Reference,
			t.Status, t.Comments, t.Deployed, t.Patched, t.CompensatingControls, t.ControlDetails,
			t.EstimatedCompletion, t.PatchedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		p.log.Errorw("failed to insert entries", "error", err, "sheet_id", sheet.ID)
		return nil, fmt.Errorf("insert entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sheet.EntryCount = len(entries)
	p.log.Infow("sheet created", "sheet_id", sheet.ID, "entries", len(entries))
	return &sheet, nil
}

// GetSheet fetches a sheet with its entry count.
func (p *Postgres) GetSheet(ctx context.Context, sheetID int64) (*entities.Sheet, error) {
	var s entities.Sheet
	if err := p.db.QueryRow(ctx, selectSheetQuery, sheetID).
		Scan(&s.ID, &s.Title, &s.CreatedBy, &s.CreatedAt, &s.EntryCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrSheetNotFound
		}
		return nil, fmt.Errorf("get sheet: %w", err)
	}
	return &s, nil
}

// DeleteSheet removes a sheet; entries, team sheets and responses cascade.
func (p *Postgres) DeleteSheet(ctx context.Context, sheetID int64) error {
	tag, err := p.db.Exec(ctx, deleteSheetQuery, sheetID)
	if err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrSheetNotFound
	}
	p.log.Infow("sheet deleted", "sheet_id", sheetID)
	return nil
}

// GetEntry fetches one master entry.
func (p *Postgres) GetEntry(ctx context.Context, entryID int64) (*entities.Entry, error) {
	e, err := scanEntry(p.db.QueryRow(ctx, selectEntryQuery, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrEntryNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// ListEntries returns the sheet's entries ordered by id.
func (p *Postgres) ListEntries(ctx context.Context, sheetID int64) ([]entities.Entry, error) {
	if err := p.ensureSheet(ctx, p.db, sheetID); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(ctx, selectEntriesSQL, sheetID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collect(rows, scanEntry)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *Postgres) ensureSheet(ctx context.Context, q querier, sheetID int64) error {
	var exists bool
	if err := q.QueryRow(ctx, sheetExistsQuery, sheetID).Scan(&exists); err != nil {
		return fmt.Errorf("sheet lookup: %w", err)
	}
	if !exists {
		return entities.ErrSheetNotFound
	}
	return nil
}

func collect[T any](rows pgx.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	res := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}
