package domain

import (
	"context"
	"fmt"
	"time"

	"advisory-tracker/internal/entities"
	"advisory-tracker/internal/metrics"
	"advisory-tracker/internal/notify"
)

// InitializeResponses seeds one response per sheet entry for the team sheet.
// When the team sheet already has responses they are returned unchanged.
func (u *Usecase) InitializeResponses(ctx context.Context, teamSheetID, sheetID int64) (_ []entities.Response, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpInitialize, time.Now(), &err)

	if err = requireID("team_sheet_id", teamSheetID); err != nil {
		return nil, err
	}
	if err = requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}

	responses, created, err := u.repo.InitializeResponses(ctx, teamSheetID, sheetID, u.now())
	if err != nil {
		return nil, err
	}
	if created {
		u.log.Infow("responses initialized", "team_sheet_id", teamSheetID, "sheet_id", sheetID, "count", len(responses))
	}
	return responses, nil
}

// TeamResponses returns the team's responses for a sheet, seeding them on first access.
func (u *Usecase) TeamResponses(ctx context.Context, sheetID int64, teamID, userID string) ([]entities.Response, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	ts, err := u.memberTeamSheet(ctx, sheetID, teamID, userID)
	if err != nil {
		return nil, err
	}
	responses, _, err := u.repo.InitializeResponses(ctx, ts.ID, sheetID, u.now())
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// UpdateResponse applies a team member's edit to one response.
// The first write under an assigned team sheet moves it to in_progress.
func (u *Usecase) UpdateResponse(ctx context.Context, responseID int64, update entities.ResponseUpdate, userID string) (_ *entities.Response, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpUpdate, time.Now(), &err)

	if err = requireID("response_id", responseID); err != nil {
		return nil, err
	}
	if err = requireUser(userID); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		err = fmt.Errorf("%w: no fields to update", entities.ErrInvalidArgument)
		return nil, err
	}
	if err = update.Validate(); err != nil {
		return nil, err
	}

	ts, err := u.repo.ResponseTeamSheet(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if err = u.requireMember(ctx, ts.TeamID, userID); err != nil {
		return nil, err
	}

	change, err := u.repo.UpdateResponse(ctx, responseID, update.TrackingUpdate, userID, u.now())
	if err != nil {
		return nil, err
	}

	if change.Started {
		e := u.event(notify.KindTeamSheetStarted)
		e.SheetID = change.TeamSheet.SheetID
		e.TeamSheetID = change.TeamSheet.ID
		e.TeamID = change.TeamSheet.TeamID
		e.UserID = userID
		e.Status = string(change.TeamSheet.Status)
		u.emit(e)
	}
	if statusChanged(change) {
		e := u.event(notify.KindResponseStatusChanged)
		e.SheetID = change.TeamSheet.SheetID
		e.TeamSheetID = change.TeamSheet.ID
		e.TeamID = change.TeamSheet.TeamID
		e.EntryID = change.Response.OriginalEntryID
		e.ResponseID = change.Response.ID
		e.UserID = userID
		e.Status = entities.NormalizeStatus(change.Response.Tracking.Status)
		e.PreviousStatus = entities.NormalizeStatus(change.PreviousStatus)
		u.emit(e)
	}
	return &change.Response, nil
}

// statusChanged reports a response moving into a status worth announcing.
func statusChanged(c *entities.ResponseChange) bool {
	next := entities.NormalizeStatus(c.Response.Tracking.Status)
	return next != entities.NormalizeStatus(c.PreviousStatus) && entities.IsNotifiableStatus(next)
}

// SubmitBatch upserts the team's responses by entry and completes the team sheet.
func (u *Usecase) SubmitBatch(ctx context.Context, sheetID int64, teamID string, items []entities.ResponseSubmission, userID string) (err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpSubmit, time.Now(), &err)

	for _, item := range items {
		if err = requireID("entry_id", item.EntryID); err != nil {
			return err
		}
		if err = item.Update.Validate(); err != nil {
			return err
		}
	}

	ts, err := u.memberTeamSheet(ctx, sheetID, teamID, userID)
	if err != nil {
		return err
	}
	res, err := u.repo.SubmitResponses(ctx, ts.ID, items, userID, u.now())
	if err != nil {
		return err
	}
	if res.Completed {
		u.completed(res.TeamSheet, userID, res.ResponseCount)
	}
	return nil
}

// MarkCompleted moves the team sheet to completed. Repeated calls return the sheet unchanged.
func (u *Usecase) MarkCompleted(ctx context.Context, sheetID int64, teamID, userID string) (_ *entities.TeamSheet, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpMarkDone, time.Now(), &err)

	ts, err := u.memberTeamSheet(ctx, sheetID, teamID, userID)
	if err != nil {
		return nil, err
	}
	done, transitioned, err := u.repo.CompleteTeamSheet(ctx, ts.ID, userID, u.now())
	if err != nil {
		return nil, err
	}
	if transitioned {
		count, cerr := u.repo.CountResponses(ctx, done.ID)
		if cerr != nil {
			u.log.Warnw("failed to count responses", "team_sheet_id", done.ID, "error", cerr)
		}
		u.completed(*done, userID, count)
	}
	return done, nil
}

func (u *Usecase) completed(ts entities.TeamSheet, userID string, count int64) {
	u.metrics.IncTeamSheetsCompleted()
	u.log.Infow("team sheet completed", "team_sheet_id", ts.ID, "team_id", ts.TeamID, "user_id", userID, "responses", count)

	e := u.event(notify.KindTeamSheetCompleted)
	e.SheetID = ts.SheetID
	e.TeamSheetID = ts.ID
	e.TeamID = ts.TeamID
	e.UserID = userID
	e.Status = string(ts.Status)
	e.Count = count
	u.emit(e)
}

// Summarize rolls up every team sheet of a sheet.
func (u *Usecase) Summarize(ctx context.Context, sheetID int64) (_ entities.SheetSummary, err error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()
	defer u.observe(metrics.OpSummarize, time.Now(), &err)

	if err = requireID("sheet_id", sheetID); err != nil {
		return entities.SheetSummary{}, err
	}
	if _, err = u.repo.GetSheet(ctx, sheetID); err != nil {
		return entities.SheetSummary{}, err
	}
	teams, err := u.repo.SummarizeSheet(ctx, sheetID)
	if err != nil {
		return entities.SheetSummary{}, err
	}
	return entities.NewSheetSummary(sheetID, teams), nil
}

// memberTeamSheet resolves the (sheet, team) assignment and checks userID belongs to the team.
func (u *Usecase) memberTeamSheet(ctx context.Context, sheetID int64, teamID, userID string) (*entities.TeamSheet, error) {
	if err := requireID("sheet_id", sheetID); err != nil {
		return nil, err
	}
	if teamID == "" {
		return nil, fmt.Errorf("%w: team_id is required", entities.ErrInvalidArgument)
	}
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	ts, err := u.repo.FindTeamSheet(ctx, sheetID, teamID)
	if err != nil {
		return nil, err
	}
	if err := u.requireMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return ts, nil
}
