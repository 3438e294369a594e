package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"advisory-tracker/internal/entities"
)

// Submissions decodes from either [{"entry_id": 1, ...}] or {"1": {...}}.
// The object form is ordered by entry id.
type Submissions []Submission

// UnmarshalJSON implements json.Unmarshaler.
func (s *Submissions) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}

	if b[0] == '[' {
		var list []Submission
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("%w: responses: %v", entities.ErrInvalidArgument, err)
		}
		*s = list
		return nil
	}

	var byEntry map[string]TrackingFields
	if err := json.Unmarshal(b, &byEntry); err != nil {
		return fmt.Errorf("%w: responses: %v", entities.ErrInvalidArgument, err)
	}
	list := make([]Submission, 0, len(byEntry))
	for key, fields := range byEntry {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: responses: entry id %q is not a number", entities.ErrInvalidArgument, key)
		}
		list = append(list, Submission{EntryID: id, TrackingFields: fields})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EntryID < list[j].EntryID })
	*s = list
	return nil
}
