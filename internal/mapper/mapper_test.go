package mapper

import (
	"testing"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/transport/http/dto"

	"github.com/stretchr/testify/require"
)

func TestFromTrackingFieldsDates(t *testing.T) {
	empty := ""
	day := "2026-04-01"

	u, err := FromTrackingFields(dto.TrackingFields{EstimatedCompletion: &day, PatchedAt: &empty})
	require.NoError(t, err)
	require.NotNil(t, u.EstimatedCompletion)
	require.True(t, u.EstimatedCompletion.Time.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, u.PatchedAt)
	require.Nil(t, u.PatchedAt.Time)
	require.Nil(t, u.Status)

	bad := "soon"
	_, err = FromTrackingFields(dto.TrackingFields{PatchedAt: &bad})
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
}

func TestToEntryReportsHeldLockOnly(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e := entities.Entry{ID: 7, Lease: entities.Lease{HeldBy: "alice", HeldAt: &at}}

	out := ToEntry(e, 30*time.Minute)
	require.NotNil(t, out.Lock)
	require.True(t, out.Lock.ExpiresAt.Equal(at.Add(30*time.Minute)))

	out = ToEntry(entities.Entry{ID: 8}, 30*time.Minute)
	require.Nil(t, out.Lock)
}

func TestFromNewEntriesAppliesTracking(t *testing.T) {
	status := " open "
	list, err := FromNewEntries([]dto.NewEntry{{Product: "vpn", Tracking: dto.TrackingFields{Status: &status, Deployed: entities.Unknown.Ptr()}}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "open", list[0].Tracking.Status)
	require.Equal(t, entities.No, list[0].Tracking.Deployed)
}
