// Package entities contains core business entities.
package entities

// Team groups the users that work one copy of a sheet.
type Team struct {
	ID      string
	Name    string
	Active  bool
	Members []string
}

// HasMember reports whether userID belongs to the team.
func (t Team) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}
