package entities

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxStatusLen   = 64
	maxCommentsLen = 8000
	dateLayout     = "2006-01-02"
)

// Tracking holds the remediation fields teams edit. Entries and responses share it.
type Tracking struct {
	Status               string
	Comments             string
	Deployed             TriState
	Patched              TriState
	CompensatingControls TriState
	ControlDetails       string
	EstimatedCompletion  *time.Time
	PatchedAt            *time.Time
}

// DateInput is a supplied date field. A nil Time clears the stored value.
type DateInput struct {
	Time *time.Time
}

// ParseDateInput converts a raw date string. Empty input means "no value".
func ParseDateInput(raw string) (*DateInput, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &DateInput{}, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &DateInput{Time: &t}, nil
		}
	}
	return nil, fmt.Errorf("%w: malformed date %q", ErrInvalidArgument, raw)
}

// TrackingUpdate is the allow-listed set of tracking fields a mutation may touch.
// Nil fields are left unchanged.
type TrackingUpdate struct {
	Status               *string
	Comments             *string
	Deployed             *TriState
	Patched              *TriState
	CompensatingControls *TriState
	ControlDetails       *string
	EstimatedCompletion  *DateInput
	PatchedAt            *DateInput
}

// Validate checks the normalized values.
func (u TrackingUpdate) Validate() error {
	if u.Status != nil && len(strings.TrimSpace(*u.Status)) > maxStatusLen {
		return fmt.Errorf("%w: status longer than %d characters", ErrInvalidArgument, maxStatusLen)
	}
	if u.Comments != nil && len(*u.Comments) > maxCommentsLen {
		return fmt.Errorf("%w: comments longer than %d characters", ErrInvalidArgument, maxCommentsLen)
	}
	if u.ControlDetails != nil && len(*u.ControlDetails) > maxCommentsLen {
		return fmt.Errorf("%w: control details longer than %d characters", ErrInvalidArgument, maxCommentsLen)
	}
	return nil
}

// IsEmpty reports whether no field was supplied.
func (u TrackingUpdate) IsEmpty() bool {
	return u.Status == nil && u.Comments == nil && u.Deployed == nil && u.Patched == nil &&
		u.CompensatingControls == nil && u.ControlDetails == nil &&
		u.EstimatedCompletion == nil && u.PatchedAt == nil
}

// ApplyTo copies supplied fields onto t.
func (u TrackingUpdate) ApplyTo(t *Tracking) {
	if u.Status != nil {
		t.Status = strings.TrimSpace(*u.Status)
	}
	if u.Comments != nil {
		t.Comments = *u.Comments
	}
	if u.Deployed != nil {
		t.Deployed = normalizeTri(*u.Deployed)
	}
	if u.Patched != nil {
		t.Patched = normalizeTri(*u.Patched)
	}
	if u.CompensatingControls != nil {
		t.CompensatingControls = normalizeTri(*u.CompensatingControls)
	}
	if u.ControlDetails != nil {
		t.ControlDetails = *u.ControlDetails
	}
	if u.EstimatedCompletion != nil {
		t.EstimatedCompletion = u.EstimatedCompletion.Time
	}
	if u.PatchedAt != nil {
		t.PatchedAt = u.PatchedAt.Time
	}
}

// unrecognised flags fall back to No, the canonical default.
func normalizeTri(t TriState) TriState {
	if t == Yes {
		return Yes
	}
	return No
}

// NormalizeStatus lower-cases a status and folds spaces and dashes into underscores.
func NormalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// CompletedResponseStatuses are the response statuses counted as done.
var CompletedResponseStatuses = []string{"completed", "patched", "closed"}

// IsCompletedStatus reports whether a response status counts towards completion.
func IsCompletedStatus(status string) bool {
	n := NormalizeStatus(status)
	for _, s := range CompletedResponseStatuses {
		if n == s {
			return true
		}
	}
	return false
}

// IsNotifiableStatus reports whether moving a response into status is announced.
func IsNotifiableStatus(status string) bool {
	switch NormalizeStatus(status) {
	case "in_progress", "pending_patch", "completed":
		return true
	}
	return false
}
