// Package mapper converts between domain models and transport DTOs.
package mapper

import (
	"fmt"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/transport/http/dto"
)

const dateLayout = "2006-01-02"

// FromTrackingFields builds a typed update from transport fields, parsing dates.
func FromTrackingFields(src dto.TrackingFields) (entities.TrackingUpdate, error) {
	u := entities.TrackingUpdate{
		Status:               src.Status,
		Comments:             src.Comments,
		Deployed:             src.Deployed,
		Patched:              src.Patched,
		CompensatingControls: src.CompensatingControls,
		ControlDetails:       src.ControlDetails,
	}
	var err error
	if u.EstimatedCompletion, err = dateInput("estimated_completion", src.EstimatedCompletion); err != nil {
		return entities.TrackingUpdate{}, err
	}
	if u.PatchedAt, err = dateInput("patched_at", src.PatchedAt); err != nil {
		return entities.TrackingUpdate{}, err
	}
	return u, nil
}

func dateInput(field string, raw *string) (*entities.DateInput, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := entities.ParseDateInput(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// FromSubmissions maps a batch submit body.
func FromSubmissions(src dto.Submissions) ([]entities.ResponseSubmission, error) {
	res := make([]entities.ResponseSubmission, 0, len(src))
	for _, s := range src {
		update, err := FromTrackingFields(s.TrackingFields)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", s.EntryID, err)
		}
		res = append(res, entities.ResponseSubmission{EntryID: s.EntryID, Update: update})
	}
	return res, nil
}

// FromNewEntries maps uploaded rows to master entries.
func FromNewEntries(src []dto.NewEntry) ([]entities.Entry, error) {
	res := make([]entities.Entry, 0, len(src))
	for i, n := range src {
		update, err := FromTrackingFields(n.Tracking)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := update.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		e := entities.Entry{Advisory: entities.Advisory{
			Product:   n.Product,
			Vendor:    n.Vendor,
			CVE:       n.CVE,
			RiskLevel: n.RiskLevel,
			Title:     n.Title,
			Summary:   n.Summary,
			Reference: n.Reference,
		}}
		update.ApplyTo(&e.Tracking)
		res = append(res, e)
	}
	return res, nil
}

// ToTracking maps tracking fields to transport.
func ToTracking(t entities.Tracking) dto.Tracking {
	return dto.Tracking{
		Status:               t.Status,
		Comments:             t.Comments,
		Deployed:             t.Deployed,
		Patched:              t.Patched,
		CompensatingControls: t.CompensatingControls,
		ControlDetails:       t.ControlDetails,
		EstimatedCompletion:  formatDate(t.EstimatedCompletion),
		PatchedAt:            formatDate(t.PatchedAt),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}

// ToEntry maps an entry. The lock is only reported while it is held.
func ToEntry(e entities.Entry, ttl time.Duration) dto.Entry {
	out := dto.Entry{
		ID:           e.ID,
		SheetID:      e.SheetID,
		Product:      e.Advisory.Product,
		Vendor:       e.Advisory.Vendor,
		CVE:          e.Advisory.CVE,
		RiskLevel:    e.Advisory.RiskLevel,
		Title:        e.Advisory.Title,
		Summary:      e.Advisory.Summary,
		Reference:    e.Advisory.Reference,
		Tracking:     ToTracking(e.Tracking),
		AssignedTeam: e.AssignedTeam,
		Completed:    e.Completed,
		CompletedAt:  e.CompletedAt,
		CompletedBy:  e.CompletedBy,
	}
	if e.Lease.Held() && e.Lease.HeldAt != nil {
		out.Lock = &dto.Lock{
			HeldBy:    e.Lease.HeldBy,
			HeldAt:    *e.Lease.HeldAt,
			ExpiresAt: e.Lease.ExpiresAt(ttl),
		}
	}
	return out
}

// ToEntries maps a slice of entries.
func ToEntries(list []entities.Entry, ttl time.Duration) []dto.Entry {
	res := make([]dto.Entry, 0, len(list))
	for _, e := range list {
		res = append(res, ToEntry(e, ttl))
	}
	return res
}

// ToSheet maps a sheet.
func ToSheet(s entities.Sheet) dto.Sheet {
	return dto.Sheet{
		ID:         s.ID,
		Title:      s.Title,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
		EntryCount: s.EntryCount,
	}
}

// FromTeam builds an entities.Team from transport DTO.
func FromTeam(src dto.Team) entities.Team {
	return entities.Team{
		ID:      src.ID,
		Name:    src.Name,
		Active:  src.Active,
		Members: src.Members,
	}
}

// ToTeam maps entities.Team to transport model.
func ToTeam(team entities.Team) dto.Team {
	members := team.Members
	if members == nil {
		members = []string{}
	}
	return dto.Team{
		ID:      team.ID,
		Name:    team.Name,
		Active:  team.Active,
		Members: members,
	}
}

// ToTeamSheet maps a team sheet.
func ToTeamSheet(ts entities.TeamSheet) dto.TeamSheet {
	return dto.TeamSheet{
		ID:          ts.ID,
		SheetID:     ts.SheetID,
		TeamID:      ts.TeamID,
		TeamName:    ts.TeamName,
		Status:      string(ts.Status),
		AssignedAt:  ts.AssignedAt,
		AssignedBy:  ts.AssignedBy,
		StartedAt:   ts.StartedAt,
		StartedBy:   ts.StartedBy,
		CompletedAt: ts.CompletedAt,
		CompletedBy: ts.CompletedBy,
	}
}

// ToTeamSheets maps a slice of team sheets.
func ToTeamSheets(list []entities.TeamSheet) []dto.TeamSheet {
	res := make([]dto.TeamSheet, 0, len(list))
	for _, ts := range list {
		res = append(res, ToTeamSheet(ts))
	}
	return res
}

// ToResponse maps a response.
func ToResponse(r entities.Response) dto.Response {
	return dto.Response{
		ID:          r.ID,
		TeamSheetID: r.TeamSheetID,
		EntryID:     r.OriginalEntryID,
		Tracking:    ToTracking(r.Tracking),
		UpdatedBy:   r.UpdatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ToResponses maps a slice of responses.
func ToResponses(list []entities.Response) []dto.Response {
	res := make([]dto.Response, 0, len(list))
	for _, r := range list {
		res = append(res, ToResponse(r))
	}
	return res
}
