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
	// The lease is granted by a single conditional update so two callers can never both win.
	acquireLeaseQuery = `
UPDATE entries SET locked_by=$2, locked_at=$3
WHERE id=$1 AND (locked_by IS NULL OR locked_by=$2 OR locked_at <= $4)
RETURNING ` + entryColumns
	selectLeaseQuery   = `SELECT locked_by, locked_at FROM entries WHERE id=$1`
	releaseLeaseQuery  = `UPDATE entries SET locked_by=NULL, locked_at=NULL WHERE id=$1 AND locked_by=$2`
	entryExistsQuery   = `SELECT EXISTS(SELECT 1 FROM entries WHERE id=$1)`
	selectEntryForLock = `SELECT ` + entryColumns + ` FROM entries WHERE id=$1 FOR UPDATE`
	completeEntryQuery = `
UPDATE entries SET status=$2, comments=$3, deployed=$4, patched=$5, compensating_controls=$6,
    control_details=$7, estimated_completion=$8, patched_at=$9,
    completed=true, completed_at=$10, completed_by=$11, locked_by=NULL, locked_at=NULL
WHERE id=$1 AND locked_by=$11
RETURNING ` + entryColumns
	availableEntriesQuery = `
SELECT ` + entryColumns + ` FROM entries
WHERE sheet_id=$1 AND (locked_by IS NULL OR locked_by=$2 OR locked_at <= $3)
ORDER BY id`
	leasedEntriesQuery = `SELECT ` + entryColumns + ` FROM entries WHERE locked_by=$1 AND locked_at > $2 ORDER BY id`
	sweepLeasesQuery   = `UPDATE entries SET locked_by=NULL, locked_at=NULL WHERE locked_by IS NOT NULL AND locked_at <= $1`
)

// AcquireLease grants the entry to userID when it is free, already theirs, or expired.
func (p *Postgres) AcquireLease(ctx context.Context, entryID int64, userID string, now time.Time, ttl time.Duration) (*entities.Entry, error) {
	cutoff := now.Add(-ttl)
	e, err := scanEntry(p.db.QueryRow(ctx, acquireLeaseQuery, entryID, userID, now, cutoff))
	if err == nil {
		p.log.Infow("lease granted", "entry_id", entryID, "user_id", userID)
		return &e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		p.log.Errorw("failed to acquire lease", "error", err, "entry_id", entryID)
		return nil, fmt.Errorf("acquire lease: %w", err)
	}

	var (
		heldBy *string
		heldAt *time.Time
	)
	if err := p.db.QueryRow(ctx, selectLeaseQuery, entryID).Scan(&heldBy, &heldAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrEntryNotFound
		}
		return nil, fmt.Errorf("lease lookup: %w", err)
	}
	return nil, conflict(entryID, entities.Lease{HeldBy: deref(heldBy), HeldAt: heldAt}, ttl)
}

// ReleaseLease clears the lease if userID holds it.
func (p *Postgres) ReleaseLease(ctx context.Context, entryID int64, userID string) error {
	tag, err := p.db.Exec(ctx, releaseLeaseQuery, entryID, userID)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if tag.RowsAffected() > 0 {
		p.log.Infow("lease released", "entry_id", entryID, "user_id", userID)
		return nil
	}

	var exists bool
	if err := p.db.QueryRow(ctx, entryExistsQuery, entryID).Scan(&exists); err != nil {
		return fmt.Errorf("entry lookup: %w", err)
	}
	if !exists {
		return entities.ErrEntryNotFound
	}
	return entities.ErrNotLockHolder
}

// CompleteEntry applies the holder's fields, marks the entry completed and drops the lease in one statement.
func (p *Postgres) CompleteEntry(ctx context.Context, entryID int64, userID string, update entities.TrackingUpdate, now time.Time) (*entities.Entry, error) {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	e, err := scanEntry(tx.QueryRow(ctx, selectEntryForLock, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrEntryNotFound
		}
		p.log.Errorw("failed to select entry for update", "error", err, "entry_id", entryID)
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if e.Lease.HeldBy != userID {
		return nil, entities.ErrNotLockHolder
	}

	t := e.Tracking
	update.ApplyTo(&t)
	done, err := scanEntry(tx.QueryRow(ctx, completeEntryQuery, entryID,
		t.Status, t.Comments, t.Deployed, t.Patched, t.CompensatingControls,
		t.ControlDetails, t.EstimatedCompletion, t.PatchedAt, now, userID))
	if err != nil {
		p.log.Errorw("failed to complete entry", "error", err, "entry_id", entryID)
		return nil, fmt.Errorf("complete entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.log.Infow("entry completed", "entry_id", entryID, "user_id", userID)
	return &done, nil
}

// ListAvailableEntries returns sheet entries userID could lock right now.
func (p *Postgres) ListAvailableEntries(ctx context.Context, sheetID int64, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error) {
	if err := p.ensureSheet(ctx, p.db, sheetID); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(ctx, availableEntriesQuery, sheetID, userID, now.Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("list available entries: %w", err)
	}
	return collect(rows, scanEntry)
}

// ListLeasedEntries returns entries leased to userID whose lease is still valid.
func (p *Postgres) ListLeasedEntries(ctx context.Context, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error) {
	rows, err := p.db.Query(ctx, leasedEntriesQuery, userID, now.Add(-ttl))
	if err != nil {
		return nil, fmt.Errorf("list leased entries: %w", err)
	}
	return collect(rows, scanEntry)
}

// SweepExpiredLeases clears every lease whose age reached ttl.
func (p *Postgres) SweepExpiredLeases(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	tag, err := p.db.Exec(ctx, sweepLeasesQuery, now.Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("sweep leases: %w", err)
	}
	n := tag.RowsAffected()
	if n > 0 {
		p.log.Infow("expired leases swept", "count", n)
	}
	return n, nil
}

func conflict(entryID int64, lease entities.Lease, ttl time.Duration) error {
	e := &entities.LockConflictError{EntryID: entryID, HeldBy: lease.HeldBy}
	if lease.HeldAt != nil {
		e.HeldAt = *lease.HeldAt
		e.ExpiresAt = lease.ExpiresAt(ttl)
	}
	return e
}
