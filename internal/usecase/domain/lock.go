package domain

import (
	"context"
	"errors"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"
)

// Lock leases an entry to userID for the lease TTL.
// Re-locking an entry the caller already holds renews the lease.
func (u *Usecase) Lock(ctx context.Context, entryID int64, userID string) (_ *entities.Entry, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpLock, time.Now(), &err)

	if err = requireID("entry_id", entryID); err != nil {
		return nil, err
	}
	if err = requireUser(userID); err != nil {
		return nil, err
	}

	e, err := u.repo.AcquireLease(ctx, entryID, userID, u.now(), u.leaseTTL)
	if err != nil {
		var conflict *entities.LockConflictError
		if errors.As(err, &conflict) {
			u.log.Infow("lock refused", "entry_id", entryID, "user_id", userID, "held_by", conflict.HeldBy)
		}
		return nil, err
	}
	return e, nil
}

// Unlock releases the caller's lease. Any other caller gets ErrNotLockHolder, even on an unheld entry.
func (u *Usecase) Unlock(ctx context.Context, entryID int64, userID string) (err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpUnlock, time.Now(), &err)

	if err = requireID("entry_id", entryID); err != nil {
		return err
	}
	if err = requireUser(userID); err != nil {
		return err
	}
	return u.repo.ReleaseLease(ctx, entryID, userID)
}

// Complete stores the holder's fields, marks the entry completed and releases the lease atomically.
func (u *Usecase) Complete(ctx context.Context, entryID int64, userID string, completion entities.EntryCompletion) (_ *entities.Entry, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpComplete, time.Now(), &err)

	if err = requireID("entry_id", entryID); err != nil {
		return nil, err
	}
	if err = requireUser(userID); err != nil {
		return nil, err
	}
	if err = completion.Validate(); err != nil {
		return nil, err
	}
	return u.repo.CompleteEntry(ctx, entryID, userID, completion.TrackingUpdate, u.now())
}

// ListAvailable returns sheet entries userID could lock now.
// With a teamID the sheet must be assigned to that team, otherwise the result is empty.
func (u *Usecase) ListAvailable(ctx context.Context, sheetID int64, userID, teamID string) ([]entities.Entry, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	if teamID != "" {
		if _, err := u.repo.FindTeamSheet(ctx, sheetID, teamID); err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				return []entities.Entry{}, nil
			}
			return nil, err
		}
	}
	return u.repo.ListAvailableEntries(ctx, sheetID, userID, u.now(), u.leaseTTL)
}

// ListHeldBy returns the entries userID holds a valid lease on.
func (u *Usecase) ListHeldBy(ctx context.Context, userID string) ([]entities.Entry, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return u.repo.ListLeasedEntries(ctx, userID, u.now(), u.leaseTTL)
}

// SweepExpired clears every lease whose age reached the TTL.
func (u *Usecase) SweepExpired(ctx context.Context) (n int64, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpSweep, time.Now(), &err)

	n, err = u.repo.SweepExpiredLeases(ctx, u.now(), u.leaseTTL)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.metrics.AddLeasesSwept(n)
		e := u.event(notify.KindLeaseSwept)
		e.Count = n
		u.emit(e)
	}
	return n, nil
}
