package entities

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateInput(t *testing.T) {
	d, err := ParseDateInput("2026-03-15")
	require.NoError(t, err)
	require.NotNil(t, d.Time)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *d.Time)

	d, err = ParseDateInput("2026-03-15T10:30:00+02:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC), *d.Time)

	d, err = ParseDateInput("  ")
	require.NoError(t, err)
	require.Nil(t, d.Time)

	_, err = ParseDateInput("15/03/2026")
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestTrackingUpdateApply(t *testing.T) {
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := Tracking{Status: "open", Comments: "keep", Deployed: Yes, PatchedAt: &old}

	status := "  In Progress "
	cleared, err := ParseDateInput("")
	require.NoError(t, err)
	u := TrackingUpdate{
		Status:    &status,
		Patched:   Unknown.Ptr(),
		PatchedAt: cleared,
	}
	require.False(t, u.IsEmpty())
	require.NoError(t, u.Validate())

	u.ApplyTo(&tr)
	require.Equal(t, "In Progress", tr.Status)
	require.Equal(t, "keep", tr.Comments)
	require.Equal(t, Yes, tr.Deployed)
	require.Equal(t, No, tr.Patched)
	require.Nil(t, tr.PatchedAt)

	require.True(t, TrackingUpdate{}.IsEmpty())
}

func TestTrackingUpdateValidate(t *testing.T) {
	long := strings.Repeat("x", maxStatusLen+1)
	err := TrackingUpdate{Status: &long}.Validate()
	require.True(t, errors.Is(err, ErrInvalidArgument))

	comments := strings.Repeat("c", maxCommentsLen+1)
	err = TrackingUpdate{Comments: &comments}.Validate()
	require.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestStatusClassification(t *testing.T) {
	require.Equal(t, "pending_patch", NormalizeStatus(" Pending-Patch "))
	require.Equal(t, "in_progress", NormalizeStatus("In Progress"))

	require.True(t, IsCompletedStatus("Closed"))
	require.True(t, IsCompletedStatus("patched"))
	require.False(t, IsCompletedStatus("in_progress"))

	require.True(t, IsNotifiableStatus("In Progress"))
	require.True(t, IsNotifiableStatus("pending-patch"))
	require.True(t, IsNotifiableStatus("COMPLETED"))
	require.False(t, IsNotifiableStatus("closed"))
	require.False(t, IsNotifiableStatus("open"))
}
