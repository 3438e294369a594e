package postgres

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"advisory-tracker/config"
	"advisory-tracker/internal/entities"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLeaseIntegration(t *testing.T) {
	ctx := context.Background()
	repo := startRepo(t)

	sheet, err := repo.CreateSheet(ctx, entities.Sheet{Title: "Oct advisories", CreatedBy: "admin"}, sampleEntries())
	require.NoError(t, err)
	require.Equal(t, 3, sheet.EntryCount)

	entries, err := repo.ListEntries(ctx, sheet.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	entryID := entries[0].ID

	now := time.Now().UTC().Truncate(time.Microsecond)
	ttl := entities.LeaseTTL

	e, err := repo.AcquireLease(ctx, entryID, "alice", now, ttl)
	require.NoError(t, err)
	require.Equal(t, "alice", e.Lease.HeldBy)

	_, err = repo.AcquireLease(ctx, entryID, "bob", now.Add(29*time.Minute), ttl)
	var conflictErr *entities.LockConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.ErrorIs(t, err, entities.ErrLockConflict)
	require.Equal(t, "alice", conflictErr.HeldBy)
	require.True(t, conflictErr.ExpiresAt.Equal(now.Add(ttl)))

	available, err := repo.ListAvailableEntries(ctx, sheet.ID, "bob", now.Add(time.Minute), ttl)
	require.NoError(t, err)
	require.Len(t, available, 2)

	e, err = repo.AcquireLease(ctx, entryID, "bob", now.Add(31*time.Minute), ttl)
	require.NoError(t, err)
	require.Equal(t, "bob", e.Lease.HeldBy)

	require.ErrorIs(t, repo.ReleaseLease(ctx, entryID, "alice"), entities.ErrNotLockHolder)
	require.ErrorIs(t, repo.ReleaseLease(ctx, 999999, "alice"), entities.ErrEntryNotFound)

	status := "patched"
	done, err := repo.CompleteEntry(ctx, entryID, "bob", entities.TrackingUpdate{
		Status:  &status,
		Patched: entities.Yes.Ptr(),
	}, now.Add(32*time.Minute))
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.False(t, done.Lease.Held())
	require.Equal(t, entities.Yes, done.Tracking.Patched)
	require.Equal(t, "bob", done.CompletedBy)

	_, err = repo.CompleteEntry(ctx, entries[1].ID, "bob", entities.TrackingUpdate{}, now)
	require.ErrorIs(t, err, entities.ErrNotLockHolder)

	_, err = repo.AcquireLease(ctx, entries[2].ID, "carol", now, ttl)
	require.NoError(t, err)
	swept, err := repo.SweepExpiredLeases(ctx, now.Add(ttl), ttl)
	require.NoError(t, err)
	require.Equal(t, int64(1), swept)

	leased, err := repo.ListLeasedEntries(ctx, "carol", now.Add(ttl), ttl)
	require.NoError(t, err)
	require.Empty(t, leased)
}

func TestConcurrentAcquireIntegration(t *testing.T) {
	ctx := context.Background()
	repo := startRepo(t)

	sheet, err := repo.CreateSheet(ctx, entities.Sheet{Title: "race", CreatedBy: "admin"}, sampleEntries()[:1])
	require.NoError(t, err)
	entries, err := repo.ListEntries(ctx, sheet.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = repo.AcquireLease(ctx, entries[0].ID, u, now, entities.LeaseTTL)
		}(i, u)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.True(t, errors.Is(err, entities.ErrLockConflict), "unexpected error: %v", err)
	}
	require.Equal(t, 1, winners)
}

func TestDistributionAndResponsesIntegration(t *testing.T) {
	ctx := context.Background()
	repo := startRepo(t)

	_, err := repo.UpsertTeam(ctx, entities.Team{ID: "net", Name: "Network", Active: true, Members: []string{"alice", "bob"}})
	require.NoError(t, err)
	_, err = repo.UpsertTeam(ctx, entities.Team{ID: "ops", Name: "Operations", Active: true, Members: []string{"carol"}})
	require.NoError(t, err)

	sheet, err := repo.CreateSheet(ctx, entities.Sheet{Title: "Q4", CreatedBy: "admin"}, sampleEntries())
	require.NoError(t, err)
	entries, err := repo.ListEntries(ctx, sheet.ID)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	ts, created, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", now)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, entities.StatusAssigned, ts.Status)
	require.Equal(t, "Network", ts.TeamName)

	again, created, err := repo.AssignTeam(ctx, sheet.ID, "net", "admin", now.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, ts.ID, again.ID)

	_, _, err = repo.AssignTeam(ctx, sheet.ID, "missing", "admin", now)
	require.ErrorIs(t, err, entities.ErrTeamNotFound)

	responses, created, err := repo.InitializeResponses(ctx, ts.ID, sheet.ID, now)
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, responses, len(entries))
	for i, r := range responses {
		require.Equal(t, entries[i].ID, r.OriginalEntryID)
		require.Equal(t, entries[i].Tracking.Status, r.Tracking.Status)
	}

	responses, created, err = repo.InitializeResponses(ctx, ts.ID, sheet.ID, now)
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, responses, len(entries))

	status := "in_progress"
	change, err := repo.UpdateResponse(ctx, responses[0].ID, entities.TrackingUpdate{
		Status:   &status,
		Deployed: entities.Yes.Ptr(),
	}, "alice", now.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, change.Started)
	require.Equal(t, "open", change.PreviousStatus)
	require.Equal(t, entities.StatusInProgress, change.TeamSheet.Status)

	status = "completed"
	change, err = repo.UpdateResponse(ctx, responses[0].ID, entities.TrackingUpdate{Status: &status}, "bob", now.Add(2*time.Minute))
	require.NoError(t, err)
	require.False(t, change.Started)
	require.Equal(t, entities.Yes, change.Response.Tracking.Deployed)

	closed := "closed"
	res, err := repo.SubmitResponses(ctx, ts.ID, []entities.ResponseSubmission{
		{EntryID: entries[1].ID, Update: entities.TrackingUpdate{Status: &closed}},
	}, "alice", now.Add(3*time.Minute))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, int64(len(entries)), res.ResponseCount)
	require.Equal(t, entities.StatusCompleted, res.TeamSheet.Status)
	firstCompletion := res.TeamSheet.CompletedAt
	require.NotNil(t, firstCompletion)

	again2, transitioned, err := repo.CompleteTeamSheet(ctx, ts.ID, "bob", now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, transitioned)
	require.True(t, firstCompletion.Equal(*again2.CompletedAt))

	_, err = repo.SubmitResponses(ctx, ts.ID, []entities.ResponseSubmission{{EntryID: 999999}}, "alice", now)
	require.ErrorIs(t, err, entities.ErrEntryNotFound)

	_, _, err = repo.AssignTeam(ctx, sheet.ID, "ops", "admin", now)
	require.NoError(t, err)

	teams, err := repo.SummarizeSheet(ctx, sheet.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	summary := entities.NewSheetSummary(sheet.ID, teams)
	require.Equal(t, 1, summary.TeamsCompleted)
	require.Equal(t, int64(3), summary.TotalResponses)
	require.Equal(t, int64(2), summary.CompletedResponses)

	require.NoError(t, repo.DeleteSheet(ctx, sheet.ID))
	_, err = repo.GetTeamSheet(ctx, ts.ID)
	require.ErrorIs(t, err, entities.ErrTeamSheetNotFound)
}

func sampleEntries() []entities.Entry {
	return []entities.Entry{
		{
			Advisory: entities.Advisory{Product: "edge-router", Vendor: "Acme", CVE: "CVE-2026-0001", RiskLevel: "high"},
			Tracking: entities.Tracking{Status: "open"},
		},
		{
			Advisory: entities.Advisory{Product: "vpn-gw", Vendor: "Acme", CVE: "CVE-2026-0002", RiskLevel: "critical"},
			Tracking: entities.Tracking{Status: "open", Deployed: entities.Yes},
		},
		{
			Advisory: entities.Advisory{Product: "mail", Vendor: "Mailco", CVE: "CVE-2026-0003", RiskLevel: "low"},
			Tracking: entities.Tracking{Status: "new"},
		},
	}
}

func startRepo(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	cfg, cleanup := setupPostgres(t)
	t.Cleanup(cleanup)

	repo := New(ctx, testLogger(t), cfg)
	require.NoError(t, repo.OnStart(ctx))
	t.Cleanup(func() { _ = repo.OnStop(ctx) })
	return repo
}

func setupPostgres(t *testing.T) (*config.Config, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=advisory_tracker_db",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
	})
	require.NoError(t, err)

	hostPort := resource.GetPort("5432/tcp")

	port, err := strconv.Atoi(hostPort)
	require.NoError(t, err)
	migrationsDir, err := filepath.Abs(filepath.Join("..", "..", "..", "db", "migrations"))
	require.NoError(t, err)
	require.DirExists(t, migrationsDir)

	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "0.0.0.0", Port: 8080, ShutdownTimeout: 5 * time.Second},
		HTTP:    config.HTTPConfig{RequestTimeout: 5 * time.Second},
		Storage: config.StorageConfig{Backend: "postgres"},
		Postgres: config.PostgresConfig{
			Host:           "localhost",
			Port:           port,
			User:           "postgres",
			Password:       "postgres",
			DBName:         "advisory_tracker_db",
			SSLMode:        "disable",
			MigrationsDir:  migrationsDir,
			QueryTimeout:   10 * time.Second,
			MigrateTimeout: 20 * time.Second,
			MaxConns:       8,
			MinConns:       1,
		},
	}

	require.NoError(t, pool.Retry(func() error {
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Ping()
	}))

	cleanup := func() {
		_ = pool.Purge(resource)
	}

	return cfg, cleanup
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}
