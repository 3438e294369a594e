package sqlite

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"

	"gorm.io/gorm"
)

// the lease condition shared by acquire and the available listing
const leaseFree = "(locked_by IS NULL OR locked_by = ? OR locked_at <= ?)"

// AcquireLease grants the entry to userID when it is free, already theirs, or expired.
func (s *SQLite) AcquireLease(ctx context.Context, entryID int64, userID string, now time.Time, ttl time.Duration) (*entities.Entry, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&entryModel{}).
		Where("id = ?", entryID).
		Where(leaseFree, userID, now.Add(-ttl).UnixNano()).
		Updates(map[string]any{"locked_by": userID, "locked_at": now.UnixNano()})
	if res.Error != nil {
		s.log.Errorw("failed to acquire lease", "error", res.Error, "entry_id", entryID)
		return nil, fmt.Errorf("acquire lease: %w", res.Error)
	}

	e, err := getEntry(db, entryID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, conflict(entryID, e.Lease, ttl)
	}
	s.log.Infow("lease granted", "entry_id", entryID, "user_id", userID)
	return e, nil
}

// ReleaseLease clears the lease if userID holds it.
func (s *SQLite) ReleaseLease(ctx context.Context, entryID int64, userID string) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&entryModel{}).
		Where("id = ? AND locked_by = ?", entryID, userID).
		Updates(map[string]any{"locked_by": nil, "locked_at": nil})
	if res.Error != nil {
		return fmt.Errorf("release lease: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Infow("lease released", "entry_id", entryID, "user_id", userID)
		return nil
	}
	if _, err := getEntry(db, entryID); err != nil {
		return err
	}
	return entities.ErrNotLockHolder
}

// CompleteEntry applies the holder's fields, marks the entry completed and drops the lease in one update.
func (s *SQLite) CompleteEntry(ctx context.Context, entryID int64, userID string, update entities.TrackingUpdate, now time.Time) (*entities.Entry, error) {
	var done *entities.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := getEntry(tx, entryID)
		if err != nil {
			return err
		}
		if e.Lease.HeldBy != userID {
			return entities.ErrNotLockHolder
		}

		t := e.Tracking
		update.ApplyTo(&t)
		fields := fromTracking(t).updates()
		fields["completed"] = true
		fields["completed_at"] = now
		fields["completed_by"] = userID
		fields["locked_by"] = nil
		fields["locked_at"] = nil
		res := tx.Model(&entryModel{}).Where("id = ? AND locked_by = ?", entryID, userID).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("complete entry: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entities.ErrNotLockHolder
		}

		done, err = getEntry(tx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("entry completed", "entry_id", entryID, "user_id", userID)
	return done, nil
}

// ListAvailableEntries returns sheet entries userID could lock right now.
func (s *SQLite) ListAvailableEntries(ctx context.Context, sheetID int64, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error) {
	db := s.db.WithContext(ctx)
	if err := ensureSheet(db, sheetID); err != nil {
		return nil, err
	}
	var rows []entryModel
	err := db.Where("sheet_id = ?", sheetID).
		Where(leaseFree, userID, now.Add(-ttl).UnixNano()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list available entries: %w", err)
	}
	return entriesOf(rows), nil
}

// ListLeasedEntries returns entries leased to userID whose lease is still valid.
func (s *SQLite) ListLeasedEntries(ctx context.Context, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error) {
	var rows []entryModel
	err := s.db.WithContext(ctx).
		Where("locked_by = ? AND locked_at > ?", userID, now.Add(-ttl).UnixNano()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list leased entries: %w", err)
	}
	return entriesOf(rows), nil
}

// SweepExpiredLeases clears every lease whose age reached ttl.
func (s *SQLite) SweepExpiredLeases(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	res := s.db.WithContext(ctx).Model(&entryModel{}).
		Where("locked_by IS NOT NULL AND locked_at <= ?", now.Add(-ttl).UnixNano()).
		Updates(map[string]any{"locked_by": nil, "locked_at": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep leases: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Infow("expired leases swept", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func conflict(entryID int64, lease entities.Lease, ttl time.Duration) error {
	e := &entities.LockConflictError{EntryID: entryID, HeldBy: lease.HeldBy}
	if lease.HeldAt != nil {
		e.HeldAt = *lease.HeldAt
		e.ExpiresAt = lease.ExpiresAt(ttl)
	}
	return e
}
