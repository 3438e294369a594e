package usecase

import (
	"context"

	"advisory-tracker/internal/entities"
)

// LockUsecaseInterface abstracts per-entry lease operations.
type LockUsecaseInterface interface {
	Lock(ctx context.Context, entryID int64, userID string) (*entities.Entry, error)
	Unlock(ctx context.Context, entryID int64, userID string) error
	Complete(ctx context.Context, entryID int64, userID string, completion entities.EntryCompletion) (*entities.Entry, error)
	ListAvailable(ctx context.Context, sheetID int64, userID, teamID string) ([]entities.Entry, error)
	ListHeldBy(ctx context.Context, userID string) ([]entities.Entry, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// DistributionUsecaseInterface abstracts sheet fan-out to teams.
type DistributionUsecaseInterface interface {
	AssignSheetToTeams(ctx context.Context, sheetID int64, teamIDs []string, actorID string) ([]entities.TeamSheet, error)
	AssignToAllActiveTeams(ctx context.Context, sheetID int64, actorID string) ([]entities.TeamSheet, error)
	TeamEntries(ctx context.Context, sheetID int64, teamID string) ([]entities.Entry, error)
}

// ResponseUsecaseInterface abstracts per-team responses and team sheet status.
type ResponseUsecaseInterface interface {
	InitializeResponses(ctx context.Context, teamSheetID, sheetID int64) ([]entities.Response, error)
	TeamResponses(ctx context.Context, sheetID int64, teamID, userID string) ([]entities.Response, error)
	UpdateResponse(ctx context.Context, responseID int64, update entities.ResponseUpdate, userID string) (*entities.Response, error)
	SubmitBatch(ctx context.Context, sheetID int64, teamID string, items []entities.ResponseSubmission, userID string) error
	MarkCompleted(ctx context.Context, sheetID int64, teamID, userID string) (*entities.TeamSheet, error)
	Summarize(ctx context.Context, sheetID int64) (entities.SheetSummary, error)
}

// SheetUsecaseInterface abstracts sheet ingestion and team administration.
type SheetUsecaseInterface interface {
	CreateSheet(ctx context.Context, sheet entities.Sheet, entries []entities.Entry) (*entities.Sheet, error)
	Sheet(ctx context.Context, sheetID int64) (*entities.Sheet, error)
	DeleteSheet(ctx context.Context, sheetID int64) error
	UpsertTeam(ctx context.Context, team entities.Team) (*entities.Team, error)
	Team(ctx context.Context, teamID string) (*entities.Team, error)
}
