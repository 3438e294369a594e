package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TriState is a yes/no flag that also remembers when the input was neither.
type TriState int8

const (
	// Unknown is any input that is not a recognised yes or no.
	Unknown TriState = iota
	// Yes is true, "Y" or "Yes".
	Yes
	// No is false, "N" or "No".
	No
)

// ParseTriState is the single decoder for boolean-like inputs.
func ParseTriState(v any) TriState {
	switch val := v.(type) {
	case TriState:
		return val
	case bool:
		if val {
			return Yes
		}
		return No
	case *bool:
		if val == nil {
			return Unknown
		}
		return ParseTriState(*val)
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "y", "yes", "true":
			return Yes
		case "n", "no", "false":
			return No
		}
	case []byte:
		return ParseTriState(string(val))
	}
	return Unknown
}

// Encode is the single encoder. Unknown is stored as the default "N".
func (t TriState) Encode() string {
	if t == Yes {
		return "Y"
	}
	return "N"
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Unknown"
	}
}

// MarshalJSON writes the canonical encoding.
func (t TriState) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Encode())
}

// UnmarshalJSON accepts booleans and Y/N/Yes/No strings; anything else decodes as Unknown.
func (t *TriState) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: tri-state: %v", ErrInvalidArgument, err)
	}
	*t = ParseTriState(raw)
	return nil
}

// Value implements driver.Valuer.
func (t TriState) Value() (driver.Value, error) {
	return t.Encode(), nil
}

// Scan implements sql.Scanner.
func (t *TriState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Unknown
	case string, []byte, bool:
		*t = ParseTriState(v)
	default:
		return fmt.Errorf("scan tri-state from %T", src)
	}
	return nil
}

// Ptr returns a pointer to a copy of t, for building updates.
func (t TriState) Ptr() *TriState {
	return &t
}
