package domain

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"

	"go.uber.org/multierr"
)

// AssignSheetToTeams creates one team sheet per team. A failing team does not undo the others:
// the assigned team sheets are returned together with an *entities.DistributionError.
func (u *Usecase) AssignSheetToTeams(ctx context.Context, sheetID int64, teamIDs []string, actorID string) (_ []entities.TeamSheet, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpAssign, time.Now(), &err)

	if err = requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	if err = requireUser(actorID); err != nil {
		return nil, err
	}
	teamIDs = uniqueTeams(teamIDs)
	if len(teamIDs) == 0 {
		err = fmt.Errorf("%w: at least one team_id is required", entities.ErrInvalidArgument)
		return nil, err
	}
	return u.assign(ctx, sheetID, teamIDs, actorID)
}

// AssignToAllActiveTeams assigns the sheet to every active team.
func (u *Usecase) AssignToAllActiveTeams(ctx context.Context, sheetID int64, actorID string) (_ []entities.TeamSheet, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpAssign, time.Now(), &err)

	if err = requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	if err = requireUser(actorID); err != nil {
		return nil, err
	}

	teams, err := u.repo.ListActiveTeams(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		u.log.Warnw("no active teams to assign", "sheet_id", sheetID)
		return []entities.TeamSheet{}, nil
	}
	return u.assign(ctx, sheetID, ids, actorID)
}

func (u *Usecase) assign(ctx context.Context, sheetID int64, teamIDs []string, actorID string) ([]entities.TeamSheet, error) {
	if _, err := u.repo.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}

	var (
		assigned = make([]entities.TeamSheet, 0, len(teamIDs))
		failed   []string
		errs     error
	)
	for _, teamID := range teamIDs {
		ts, created, err := u.repo.AssignTeam(ctx, sheetID, teamID, actorID, u.now())
		if err != nil {
			u.log.Errorw("failed to assign sheet", "sheet_id", sheetID, "team_id", teamID, "error", err)
			failed = append(failed, teamID)
			errs = multierr.Append(errs, fmt.Errorf("team %s: %w", teamID, err))
			continue
		}
		assigned = append(assigned, *ts)
		if !created {
			continue
		}

		u.metrics.IncTeamSheetsAssigned()
		e := u.event(notify.KindTeamSheetAssigned)
		e.SheetID = sheetID
		e.TeamSheetID = ts.ID
		e.TeamID = teamID
		e.UserID = actorID
		e.Status = string(ts.Status)
		u.emit(e)
	}

	if len(failed) > 0 {
		u.metrics.AddDistributionFailures(len(failed))
		return assigned, &entities.DistributionError{SheetID: sheetID, FailedTeams: failed, Err: errs}
	}
	return assigned, nil
}

// TeamEntries projects the sheet's entries as the team sees them: master advisory content
// overlaid with the team's response fields and tagged with the team. Nothing is persisted.
func (u *Usecase) TeamEntries(ctx context.Context, sheetID int64, teamID string) ([]entities.Entry, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	if err := requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	if teamID == "" {
		return nil, fmt.Errorf("%w: team_id is required", entities.ErrInvalidArgument)
	}

	ts, err := u.repo.FindTeamSheet(ctx, sheetID, teamID)
	if err != nil {
		return nil, err
	}
	entries, err := u.repo.ListEntries(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	responses, err := u.repo.ListResponses(ctx, ts.ID)
	if err != nil {
		return nil, err
	}

	byEntry := make(map[int64]entities.Response, len(responses))
	for _, r := range responses {
		byEntry[r.OriginalEntryID] = r
	}
	out := make([]entities.Entry, 0, len(entries))
	for _, e := range entries {
		e.AssignedTeam = teamID
		e.Lease = entities.Lease{}
		if r, ok := byEntry[e.ID]; ok {
			e.Tracking = r.Tracking
		}
		out = append(out, e)
	}
	return out, nil
}

func uniqueTeams(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
