package entities

import "time"

// TeamSummary is the per-team rollup of one sheet.
type TeamSummary struct {
	TeamSheetID        int64           `json:"team_sheet_id"`
	TeamID             string          `json:"team_id"`
	TeamName           string          `json:"team_name"`
	Status             TeamSheetStatus `json:"status"`
	AssignedAt         time.Time       `json:"assigned_at"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	TotalResponses     int64           `json:"total_responses"`
	CompletedResponses int64           `json:"completed_responses"`
	CompletionRate     float64         `json:"completion_rate"`
}

// SheetSummary aggregates team rollups for the admin view.
type SheetSummary struct {
	SheetID            int64         `json:"sheet_id"`
	Teams              []TeamSummary `json:"teams"`
	TeamsCompleted     int           `json:"teams_completed"`
	TotalResponses     int64         `json:"total_responses"`
	CompletedResponses int64         `json:"completed_responses"`
	CompletionRate     float64       `json:"completion_rate"`
}

// CompletionRate returns completed/total, or zero for an empty set.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

// NewSheetSummary fills rates and totals from per-team counts.
func NewSheetSummary(sheetID int64, teams []TeamSummary) SheetSummary {
	res := SheetSummary{SheetID: sheetID, Teams: make([]TeamSummary, 0, len(teams))}
	for _, t := range teams {
		t.CompletionRate = CompletionRate(t.CompletedResponses, t.TotalResponses)
		if t.Status == StatusCompleted {
			res.TeamsCompleted++
		}
		res.TotalResponses += t.TotalResponses
		res.CompletedResponses += t.CompletedResponses
		res.Teams = append(res.Teams, t)
	}
	res.CompletionRate = CompletionRate(res.CompletedResponses, res.TotalResponses)
	return res
}
