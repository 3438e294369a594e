package entities

import "time"

// LeaseTTL is how long a lock stays valid without being renewed.
const LeaseTTL = 30 * time.Minute

// Sheet groups the entries ingested from one advisory spreadsheet.
type Sheet struct {
	ID         int64
	Title      string
	CreatedBy  string
	CreatedAt  time.Time
	EntryCount int
}

// Advisory is the read-only advisory content of an entry.
type Advisory struct {
	Product   string
	Vendor    string
	CVE       string
	RiskLevel string
	Title     string
	Summary   string
	Reference string
}

// Lease is the lock state of an entry. An empty HeldBy means unheld.
type Lease struct {
	HeldBy string
	HeldAt *time.Time
}

// Held reports whether anybody holds the lease, expired or not.
func (l Lease) Held() bool {
	return l.HeldBy != ""
}

// Expired reports whether the lease age reached ttl at now.
func (l Lease) Expired(now time.Time, ttl time.Duration) bool {
	if l.HeldAt == nil {
		return true
	}
	return now.Sub(*l.HeldAt) >= ttl
}

// ExpiresAt returns when the lease lapses.
func (l Lease) ExpiresAt(ttl time.Duration) time.Time {
	if l.HeldAt == nil {
		return time.Time{}
	}
	return l.HeldAt.Add(ttl)
}

// AvailableTo reports whether userID may take the lease at now.
func (l Lease) AvailableTo(userID string, now time.Time, ttl time.Duration) bool {
	return !l.Held() || l.HeldBy == userID || l.Expired(now, ttl)
}

// Entry is the master record of one advisory-to-product mapping.
type Entry struct {
	ID       int64
	SheetID  int64
	Advisory Advisory
	Tracking Tracking
	// AssignedTeam is only set on team projections; master rows never carry it.
	AssignedTeam string
	Lease        Lease
	Completed    bool
	CompletedAt  *time.Time
	CompletedBy  string
}

// EntryCompletion is the field set accepted when a lock holder finishes an entry.
type EntryCompletion struct {
	TrackingUpdate
}
