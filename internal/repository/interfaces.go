// Package repository contains repository interfaces for persistence layers.
package repository

import (
	"context"
	"time"

	"advisory-tracker/internal/entities"
)

// LifecycleInterface describes storage startup/shutdown hooks.
type LifecycleInterface interface {
	OnStart(_ context.Context) error
	OnStop(_ context.Context) error
}

// SheetInterface exposes sheet and master entry operations.
type SheetInterface interface {
	CreateSheet(ctx context.Context, sheet entities.Sheet, entries []entities.Entry) (*entities.Sheet, error)
	GetSheet(ctx context.Context, sheetID int64) (*entities.Sheet, error)
	DeleteSheet(ctx context.Context, sheetID int64) error
	GetEntry(ctx context.Context, entryID int64) (*entities.Entry, error)
	ListEntries(ctx context.Context, sheetID int64) ([]entities.Entry, error)
}

// TeamInterface exposes team-related operations.
type TeamInterface interface {
	UpsertTeam(ctx context.Context, team entities.Team) (*entities.Team, error)
	GetTeam(ctx context.Context, teamID string) (*entities.Team, error)
	ListActiveTeams(ctx context.Context) ([]entities.Team, error)
	IsTeamMember(ctx context.Context, teamID, userID string) (bool, error)
}

// LeaseInterface exposes the per-entry lease operations.
// Every method takes now explicitly so expiry is decided by the caller's clock.
type LeaseInterface interface {
	AcquireLease(ctx context.Context, entryID int64, userID string, now time.Time, ttl time.Duration) (*entities.Entry, error)
	ReleaseLease(ctx context.Context, entryID int64, userID string) error
	CompleteEntry(ctx context.Context, entryID int64, userID string, update entities.TrackingUpdate, now time.Time) (*entities.Entry, error)
	ListAvailableEntries(ctx context.Context, sheetID int64, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error)
	ListLeasedEntries(ctx context.Context, userID string, now time.Time, ttl time.Duration) ([]entities.Entry, error)
	SweepExpiredLeases(ctx context.Context, now time.Time, ttl time.Duration) (int64, error)
}

// DistributionInterface exposes team sheet creation and lookup.
type DistributionInterface interface {
	AssignTeam(ctx context.Context, sheetID int64, teamID, actorID string, now time.Time) (*entities.TeamSheet, bool, error)
	GetTeamSheet(ctx context.Context, teamSheetID int64) (*entities.TeamSheet, error)
	FindTeamSheet(ctx context.Context, sheetID int64, teamID string) (*entities.TeamSheet, error)
	ListTeamSheets(ctx context.Context, sheetID int64) ([]entities.TeamSheet, error)
}

// ResponseInterface exposes per-team response operations.
type ResponseInterface interface {
	InitializeResponses(ctx context.Context, teamSheetID, sheetID int64, now time.Time) ([]entities.Response, bool, error)
	ListResponses(ctx context.Context, teamSheetID int64) ([]entities.Response, error)
	ResponseTeamSheet(ctx context.Context, responseID int64) (*entities.TeamSheet, error)
	UpdateResponse(ctx context.Context, responseID int64, update entities.TrackingUpdate, userID string, now time.Time) (*entities.ResponseChange, error)
	SubmitResponses(ctx context.Context, teamSheetID int64, items []entities.ResponseSubmission, userID string, now time.Time) (*entities.BatchResult, error)
	CompleteTeamSheet(ctx context.Context, teamSheetID int64, userID string, now time.Time) (*entities.TeamSheet, bool, error)
	CountResponses(ctx context.Context, teamSheetID int64) (int64, error)
	SummarizeSheet(ctx context.Context, sheetID int64) ([]entities.TeamSummary, error)
}
