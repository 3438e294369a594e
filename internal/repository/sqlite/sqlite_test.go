package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"advisory-tracker/config"
	"advisory-tracker/internal/entities"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	repo := New(ctx, zap.NewNop().Sugar(), &config.Config{SQLite: config.SQLiteConfig{DSN: ":memory:"}})
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })
	return repo
}

func seedSheet(t *testing.T, repo *SQLite) (*entities.Sheet, []entities.Entry) {
	t.Helper()
	ctx := context.Background()
	sheet, err := repo.CreateSheet(ctx, entities.Sheet{Title: "March", CreatedBy: "admin"}, []entities.Entry{
		{
			Advisory: entities.Advisory{Product: "edge-router", Vendor: "Acme", CVE: "CVE-2026-1001", RiskLevel: "high"},
			Tracking: entities.Tracking{Status: "open"},
		},
		{
			Advisory: entities.Advisory{Product: "vpn-gw", Vendor: "Acme", CVE: "CVE-2026-1002", RiskLevel: "critical"},
			Tracking: entities.Tracking{Status: "open", Deployed: entities.Yes},
		},
		{
			Advisory: entities.Advisory{Product: "mail", Vendor: "Mailco", CVE: "CVE-2026-1003", RiskLevel: "low"},
			Tracking: entities.Tracking{Status: "new"},
		},
	})
	require.NoError(t, err)
	entries, err := repo.ListEntries(ctx, sheet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	return sheet, entries
}

func seedTeams(t *testing.T, repo *SQLite) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.UpsertTeam(ctx, entities.Team{ID: "net", Name: "Network", Active: true, Members: []string{"alice", "bob"}})
	require.NoError(t, err)
	_, err = repo.UpsertTeam(ctx, entities.Team{ID: "ops", Name: "Operations", Active: true, Members: []string{"carol"}})
	require.NoError(t, err)
	_, err = repo.UpsertTeam(ctx, entities.Team{ID: "old", Name: "Retired", Active: false})
	require.NoError(t, err)
}

func TestLeaseLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)
	id := entries[0].ID
	ttl := entities.LeaseTTL

	e, err := repo.AcquireLease(ctx, id, "alice", t0, ttl)
	require.NoError(t, err)
	require.Equal(t, "alice", e.Lease.HeldBy)
	require.True(t, e.Lease.HeldAt.Equal(t0))

	_, err = repo.AcquireLease(ctx, id, "bob", t0.Add(29*time.Minute), ttl)
	var conflictErr *entities.LockConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.ErrorIs(t, err, entities.ErrLockConflict)
	require.Equal(t, "alice", conflictErr.HeldBy)
	require.True(t, conflictErr.ExpiresAt.Equal(t0.Add(ttl)))

	e, err = repo.AcquireLease(ctx, id, "alice", t0.Add(10*time.Minute), ttl)
	require.NoError(t, err)
	require.True(t, e.Lease.HeldAt.Equal(t0.Add(10*time.Minute)))

	e, err = repo.AcquireLease(ctx, id, "bob", t0.Add(40*time.Minute), ttl)
	require.NoError(t, err)
	require.Equal(t, "bob", e.Lease.HeldBy)

	_, err = repo.AcquireLease(ctx, 424242, "bob", t0, ttl)
	require.ErrorIs(t, err, entities.ErrEntryNotFound)
}

func TestLeaseExpiresExactlyAtTTL(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)

	_, err := repo.AcquireLease(ctx, entries[0].ID, "alice", t0, entities.LeaseTTL)
	require.NoError(t, err)

	_, err = repo.AcquireLease(ctx, entries[0].ID, "bob", t0.Add(entities.LeaseTTL-time.Nanosecond), entities.LeaseTTL)
	require.ErrorIs(t, err, entities.ErrLockConflict)

	e, err := repo.AcquireLease(ctx, entries[0].ID, "bob", t0.Add(entities.LeaseTTL), entities.LeaseTTL)
	require.NoError(t, err)
	require.Equal(t, "bob", e.Lease.HeldBy)
}

func TestReleaseLease(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)
	id := entries[0].ID

	_, err := repo.AcquireLease(ctx, id, "alice", t0, entities.LeaseTTL)
	require.NoError(t, err)

	require.ErrorIs(t, repo.ReleaseLease(ctx, id, "bob"), entities.ErrNotLockHolder)
	require.ErrorIs(t, repo.ReleaseLease(ctx, id, "bob"), entities.ErrForbidden)
	require.ErrorIs(t, repo.ReleaseLease(ctx, 424242, "bob"), entities.ErrEntryNotFound)

	require.NoError(t, repo.ReleaseLease(ctx, id, "alice"))
	e, err := repo.GetEntry(ctx, id)
	require.NoError(t, err)
	require.False(t, e.Lease.Held())
	require.Nil(t, e.Lease.HeldAt)

	require.ErrorIs(t, repo.ReleaseLease(ctx, id, "alice"), entities.ErrNotLockHolder)
}

func TestCompleteEntry(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)
	id := entries[0].ID

	status := "patched"
	comments := "rolled out to all sites"
	upd := entities.TrackingUpdate{Status: &status, Comments: &comments, Patched: entities.Yes.Ptr()}

	_, err := repo.CompleteEntry(ctx, id, "alice", upd, t0)
	require.ErrorIs(t, err, entities.ErrNotLockHolder)

	_, err = repo.AcquireLease(ctx, id, "alice", t0, entities.LeaseTTL)
	require.NoError(t, err)

	_, err = repo.CompleteEntry(ctx, id, "bob", upd, t0)
	require.ErrorIs(t, err, entities.ErrNotLockHolder)

	done, err := repo.CompleteEntry(ctx, id, "alice", upd, t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.Equal(t, "alice", done.CompletedBy)
	require.True(t, done.CompletedAt.Equal(t0.Add(5*time.Minute)))
	require.False(t, done.Lease.Held())
	require.Equal(t, "patched", done.Tracking.Status)
	require.Equal(t, comments, done.Tracking.Comments)
	require.Equal(t, entities.Yes, done.Tracking.Patched)
	require.Equal(t, entities.No, done.Tracking.Deployed)
	require.Equal(t, entities.Advisory{Product: "edge-router", Vendor: "Acme", CVE: "CVE-2026-1001", RiskLevel: "high"}, done.Advisory)
}

func TestListAvailableAndLeased(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	sheet, entries := seedSheet(t, repo)
	ttl := entities.LeaseTTL

	_, err := repo.AcquireLease(ctx, entries[0].ID, "alice", t0, ttl)
	require.NoError(t, err)
	_, err = repo.AcquireLease(ctx, entries[1].ID, "bob", t0, ttl)
	require.NoError(t, err)

	available, err := repo.ListAvailableEntries(ctx, sheet.ID, "alice", t0.Add(time.Minute), ttl)
	require.NoError(t, err)
	require.Len(t, available, 2)
	require.Equal(t, entries[0].ID, available[0].ID)
	require.Equal(t, entries[2].ID, available[1].ID)

	available, err = repo.ListAvailableEntries(ctx, sheet.ID, "alice", t0.Add(ttl), ttl)
	require.NoError(t, err)
	require.Len(t, available, 3)

	leased, err := repo.ListLeasedEntries(ctx, "bob", t0.Add(time.Minute), ttl)
	require.NoError(t, err)
	require.Len(t, leased, 1)
	leased, err = repo.ListLeasedEntries(ctx, "bob", t0.Add(ttl), ttl)
	require.NoError(t, err)
	require.Empty(t, leased)

	_, err = repo.ListAvailableEntries(ctx, 424242, "alice", t0, ttl)
	require.ErrorIs(t, err, entities.ErrSheetNotFound)
}

func TestSweepExpiredLeases(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)
	ttl := entities.LeaseTTL

	_, err := repo.AcquireLease(ctx, entries[0].ID, "alice", t0, ttl)
	require.NoError(t, err)
	_, err = repo.AcquireLease(ctx, entries[1].ID, "bob", t0.Add(20*time.Minute), ttl)
	require.NoError(t, err)

	n, err := repo.SweepExpiredLeases(ctx, t0.Add(ttl), ttl)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	e, err := repo.GetEntry(ctx, entries[0].ID)
	require.NoError(t, err)
	require.False(t, e.Lease.Held())
	e, err = repo.GetEntry(ctx, entries[1].ID)
	require.NoError(t, err)
	require.Equal(t, "bob", e.Lease.HeldBy)
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	_, entries := seedSheet(t, repo)

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10"}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = repo.AcquireLease(ctx, entries[0].ID, u, t0, entities.LeaseTTL)
		}(i, u)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, entities.ErrLockConflict)
	}
	require.Equal(t, 1, winners)
}

func TestTeams(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)

	team, err := repo.GetTeam(ctx, "net")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, team.Members)

	active, err := repo.ListActiveTeams(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "net", active[0].ID)
	require.Equal(t, "ops", active[1].ID)

	ok, err := repo.IsTeamMember(ctx, "net", "bob")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = repo.IsTeamMember(ctx, "ops", "bob")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = repo.UpsertTeam(ctx, entities.Team{ID: "net", Name: "Networking", Active: true, Members: []string{"dave"}})
	require.NoError(t, err)
	team, err = repo.GetTeam(ctx, "net")
	require.NoError(t, err)
	require.Equal(t, "Networking", team.Name)
	require.Equal(t, []string{"dave"}, team.Members)

	_, err = repo.GetTeam(ctx, "missing")
	require.ErrorIs(t, err, entities.ErrTeamNotFound)
}

func TestAssignTeamIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, _ := seedSheet(t, repo)

	ts, created, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", t0)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, entities.StatusAssigned, ts.Status)
	require.Equal(t, "Network", ts.TeamName)
	require.True(t, ts.AssignedAt.Equal(t0))

	again, created, err := repo.AssignTeam(ctx, sheet.ID, "net", "other-admin", t0.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, ts.ID, again.ID)
	require.Equal(t, "admin", again.AssignedBy)

	_, _, err = repo.AssignTeam(ctx, sheet.ID, "missing", "admin", t0)
	require.ErrorIs(t, err, entities.ErrTeamNotFound)
	_, _, err = repo.AssignTeam(ctx, 424242, "net", "admin", t0)
	require.ErrorIs(t, err, entities.ErrSheetNotFound)

	list, err := repo.ListTeamSheets(ctx, sheet.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	found, err := repo.FindTeamSheet(ctx, sheet.ID, "net")
	require.NoError(t, err)
	require.Equal(t, ts.ID, found.ID)
	_, err = repo.FindTeamSheet(ctx, sheet.ID, "ops")
	require.ErrorIs(t, err, entities.ErrTeamSheetNotFound)
}

func TestInitializeResponsesSeedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, entries := seedSheet(t, repo)

	ts, _, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", t0)
	require.NoError(t, err)

	responses, created, err := repo.InitializeResponses(ctx, ts.ID, sheet.ID, t0)
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, responses, len(entries))
	for i, r := range responses {
		require.Equal(t, entries[i].ID, r.OriginalEntryID)
		require.Equal(t, entries[i].Tracking, r.Tracking)
	}

	responses, created, err = repo.InitializeResponses(ctx, ts.ID, sheet.ID, t0.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, responses, len(entries))

	n, err := repo.CountResponses(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, int64(len(entries)), n)

	_, _, err = repo.InitializeResponses(ctx, ts.ID, sheet.ID+1, t0)
	require.ErrorIs(t, err, entities.ErrInvalidArgument)
	_, _, err = repo.InitializeResponses(ctx, 424242, sheet.ID, t0)
	require.ErrorIs(t, err, entities.ErrTeamSheetNotFound)
}

func TestUpdateResponseStartsTeamSheet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, entries := seedSheet(t, repo)

	ts, _, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", t0)
	require.NoError(t, err)
	responses, _, err := repo.InitializeResponses(ctx, ts.ID, sheet.ID, t0)
	require.NoError(t, err)

	owner, err := repo.ResponseTeamSheet(ctx, responses[0].ID)
	require.NoError(t, err)
	require.Equal(t, ts.ID, owner.ID)

	status := "in_progress"
	change, err := repo.UpdateResponse(ctx, responses[0].ID, entities.TrackingUpdate{Status: &status}, "alice", t0.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, change.Started)
	require.Equal(t, "open", change.PreviousStatus)
	require.Equal(t, "in_progress", change.Response.Tracking.Status)
	require.Equal(t, "alice", change.Response.UpdatedBy)
	require.Equal(t, entities.StatusInProgress, change.TeamSheet.Status)
	require.Equal(t, "alice", change.TeamSheet.StartedBy)

	cleared := &entities.DateInput{}
	change, err = repo.UpdateResponse(ctx, responses[0].ID, entities.TrackingUpdate{EstimatedCompletion: cleared}, "bob", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, change.Started)
	require.Nil(t, change.Response.Tracking.EstimatedCompletion)
	require.Equal(t, "alice", change.TeamSheet.StartedBy)

	master, err := repo.GetEntry(ctx, entries[0].ID)
	require.NoError(t, err)
	require.Equal(t, "open", master.Tracking.Status)

	_, err = repo.UpdateResponse(ctx, 424242, entities.TrackingUpdate{}, "alice", t0)
	require.ErrorIs(t, err, entities.ErrResponseNotFound)
}

func TestSubmitResponsesCompletesOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, entries := seedSheet(t, repo)

	ts, _, err := repo.AssignTeam(ctx, sheet.ID, "ops", "admin", t0)
	require.NoError(t, err)

	closed, patched := "closed", "Patched"
	res, err := repo.SubmitResponses(ctx, ts.ID, []entities.ResponseSubmission{
		{EntryID: entries[0].ID, Update: entities.TrackingUpdate{Status: &closed}},
		{EntryID: entries[2].ID, Update: entities.TrackingUpdate{Status: &patched, Patched: entities.Yes.Ptr()}},
	}, "carol", t0.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, 2, res.Upserted)
	require.Equal(t, int64(2), res.ResponseCount)
	require.Equal(t, entities.StatusCompleted, res.TeamSheet.Status)
	require.NotNil(t, res.TeamSheet.StartedAt)
	require.True(t, res.TeamSheet.CompletedAt.Equal(t0.Add(time.Hour)))

	res, err = repo.SubmitResponses(ctx, ts.ID, []entities.ResponseSubmission{
		{EntryID: entries[0].ID, Update: entities.TrackingUpdate{Comments: &closed}},
	}, "carol", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, res.Completed)
	require.Equal(t, int64(2), res.ResponseCount)
	require.True(t, res.TeamSheet.CompletedAt.Equal(t0.Add(time.Hour)))

	_, err = repo.SubmitResponses(ctx, ts.ID, []entities.ResponseSubmission{
		{EntryID: entries[1].ID, Update: entities.TrackingUpdate{Status: &closed}},
		{EntryID: 424242},
	}, "carol", t0)
	require.ErrorIs(t, err, entities.ErrEntryNotFound)
	n, err := repo.CountResponses(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	_, transitioned, err := repo.CompleteTeamSheet(ctx, ts.ID, "carol", t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.False(t, transitioned)
}

func TestSummarizeSheet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, _ := seedSheet(t, repo)

	net, _, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", t0)
	require.NoError(t, err)
	_, _, err = repo.AssignTeam(ctx, sheet.ID, "ops", "admin", t0)
	require.NoError(t, err)

	responses, _, err := repo.InitializeResponses(ctx, net.ID, sheet.ID, t0)
	require.NoError(t, err)
	done := " Completed "
	_, err = repo.UpdateResponse(ctx, responses[1].ID, entities.TrackingUpdate{Status: &done}, "alice", t0)
	require.NoError(t, err)

	teams, err := repo.SummarizeSheet(ctx, sheet.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	require.Equal(t, "net", teams[0].TeamID)
	require.Equal(t, int64(3), teams[0].TotalResponses)
	require.Equal(t, int64(1), teams[0].CompletedResponses)
	require.Equal(t, entities.StatusInProgress, teams[0].Status)
	require.Equal(t, "ops", teams[1].TeamID)
	require.Zero(t, teams[1].TotalResponses)

	summary := entities.NewSheetSummary(sheet.ID, teams)
	require.InDelta(t, 1.0/3.0, summary.CompletionRate, 1e-9)
	require.Equal(t, 0, summary.TeamsCompleted)

	_, err = repo.SummarizeSheet(ctx, 424242)
	require.ErrorIs(t, err, entities.ErrSheetNotFound)
}

func TestDeleteSheetCascades(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seedTeams(t, repo)
	sheet, entries := seedSheet(t, repo)

	ts, _, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", t0)
	require.NoError(t, err)
	responses, _, err := repo.InitializeResponses(ctx, ts.ID, sheet.ID, t0)
	require.NoError(t, err)

	got, err := repo.GetSheet(ctx, sheet.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.EntryCount)

	require.NoError(t, repo.DeleteSheet(ctx, sheet.ID))
	require.ErrorIs(t, repo.DeleteSheet(ctx, sheet.ID), entities.ErrSheetNotFound)

	_, err = repo.GetEntry(ctx, entries[0].ID)
	require.ErrorIs(t, err, entities.ErrEntryNotFound)
	_, err = repo.GetTeamSheet(ctx, ts.ID)
	require.ErrorIs(t, err, entities.ErrTeamSheetNotFound)
	_, err = repo.ResponseTeamSheet(ctx, responses[0].ID)
	require.ErrorIs(t, err, entities.ErrResponseNotFound)
}
