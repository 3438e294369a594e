// Package entities contains core business entities and errors.
package entities

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every error returned by the core either wraps one of these or is internal.
var (
	// ErrNotFound signals a missing entry, sheet, team, team sheet or response.
	ErrNotFound = errors.New("not found")
	// ErrLockConflict signals an entry leased to another user within the lease TTL.
	ErrLockConflict = errors.New("lock conflict")
	// ErrForbidden signals a caller that is not the lock holder or not a team member.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
)

var (
	// ErrEntryNotFound signals missing entry.
	ErrEntryNotFound = fmt.Errorf("entry %w", ErrNotFound)
	// ErrSheetNotFound signals missing sheet.
	ErrSheetNotFound = fmt.Errorf("sheet %w", ErrNotFound)
	// ErrTeamNotFound signals missing team.
	ErrTeamNotFound = fmt.Errorf("team %w", ErrNotFound)
	// ErrTeamSheetNotFound signals a sheet that is not assigned to the team.
	ErrTeamSheetNotFound = fmt.Errorf("team sheet %w", ErrNotFound)
	// ErrResponseNotFound signals missing response.
	ErrResponseNotFound = fmt.Errorf("response %w", ErrNotFound)
	// ErrNotLockHolder signals unlock or complete by someone other than the holder.
	ErrNotLockHolder = fmt.Errorf("%w: lock is not held by caller", ErrForbidden)
	// ErrNotTeamMember signals a write by a user outside the owning team.
	ErrNotTeamMember = fmt.Errorf("%w: caller is not a member of the team", ErrForbidden)
)

// LockConflictError describes the lease that blocked a lock attempt.
type LockConflictError struct {
	EntryID   int64
	HeldBy    string
	HeldAt    time.Time
	ExpiresAt time.Time
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("entry %d is locked by %s until %s", e.EntryID, e.HeldBy, e.ExpiresAt.UTC().Format(time.RFC3339))
}

// Unwrap lets errors.Is match ErrLockConflict.
func (e *LockConflictError) Unwrap() error { return ErrLockConflict }

// DistributionError reports the teams a sheet could not be assigned to.
// The teams that were assigned are returned next to it, never rolled back.
type DistributionError struct {
	SheetID     int64
	FailedTeams []string
	Err         error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("sheet %d: %d team assignment(s) failed: %v", e.SheetID, len(e.FailedTeams), e.Err)
}

// Unwrap exposes the combined per-team causes.
func (e *DistributionError) Unwrap() error { return e.Err }
