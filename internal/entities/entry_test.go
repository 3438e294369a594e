package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLeaseAvailability(t *testing.T) {
	heldAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	l := Lease{HeldBy: "alice", HeldAt: &heldAt}

	require.True(t, l.Held())
	require.Equal(t, heldAt.Add(LeaseTTL), l.ExpiresAt(LeaseTTL))

	now := heldAt.Add(LeaseTTL - time.Second)
	require.False(t, l.Expired(now, LeaseTTL))
	require.True(t, l.AvailableTo("alice", now, LeaseTTL))
	require.False(t, l.AvailableTo("bob", now, LeaseTTL))

	now = heldAt.Add(LeaseTTL)
	require.True(t, l.Expired(now, LeaseTTL))
	require.True(t, l.AvailableTo("bob", now, LeaseTTL))

	var free Lease
	require.False(t, free.Held())
	require.True(t, free.AvailableTo("bob", now, LeaseTTL))
	require.True(t, free.ExpiresAt(LeaseTTL).IsZero())
}

func TestTeamSheetStatusOrder(t *testing.T) {
	require.True(t, StatusAssigned.CanAdvanceTo(StatusInProgress))
	require.True(t, StatusAssigned.CanAdvanceTo(StatusCompleted))
	require.True(t, StatusInProgress.CanAdvanceTo(StatusCompleted))
	require.False(t, StatusCompleted.CanAdvanceTo(StatusInProgress))
	require.False(t, StatusInProgress.CanAdvanceTo(StatusInProgress))
	require.False(t, TeamSheetStatus("archived").Valid())
	require.True(t, StatusCompleted.Valid())
}

func TestTeamHasMember(t *testing.T) {
	team := Team{ID: "gen", Members: []string{"alice", "carol"}}
	require.True(t, team.HasMember("carol"))
	require.False(t, team.HasMember("bob"))
}

func TestErrorKinds(t *testing.T) {
	conflict := &LockConflictError{EntryID: 7, HeldBy: "alice", ExpiresAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
	require.True(t, errors.Is(conflict, ErrLockConflict))
	require.Contains(t, conflict.Error(), "alice")

	require.True(t, errors.Is(ErrNotTeamMember, ErrForbidden))
	require.True(t, errors.Is(ErrResponseNotFound, ErrNotFound))

	dist := &DistributionError{
		SheetID:     3,
		FailedTeams: []string{"x", "y"},
		Err:         multierr.Append(ErrTeamNotFound, errors.New("boom")),
	}
	require.True(t, errors.Is(dist, ErrNotFound))
	require.Contains(t, dist.Error(), "2 team assignment(s) failed")
}

func TestNewSheetSummary(t *testing.T) {
	s := NewSheetSummary(1, []TeamSummary{
		{TeamID: "gen", Status: StatusCompleted, TotalResponses: 10, CompletedResponses: 10},
		{TeamID: "dist", Status: StatusInProgress, TotalResponses: 10, CompletedResponses: 5},
		{TeamID: "idle", Status: StatusAssigned},
	})
	require.Equal(t, 1, s.TeamsCompleted)
	require.Equal(t, int64(20), s.TotalResponses)
	require.Equal(t, int64(15), s.CompletedResponses)
	require.InDelta(t, 0.75, s.CompletionRate, 1e-9)
	require.InDelta(t, 1.0, s.Teams[0].CompletionRate, 1e-9)
	require.InDelta(t, 0.5, s.Teams[1].CompletionRate, 1e-9)
	require.Zero(t, s.Teams[2].CompletionRate)

	empty := NewSheetSummary(2, nil)
	require.Empty(t, empty.Teams)
	require.Zero(t, empty.CompletionRate)
}
