package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/procd/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &models.Run{Command: "heartbeat", PID: 4242, Mode: models.RunModeDaemon}
	require.NoError(t, s.CreateRun(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", got.Command)
	assert.Equal(t, 4242, got.PID)
	assert.Equal(t, models.RunModeDaemon, got.Mode)
	assert.True(t, got.Running())

	run.Iterations = 7
	run.ExitCode = 3
	run.Reason = "exit-code"
	require.NoError(t, s.FinishRun(ctx, run))
	require.NotNil(t, run.StoppedAt)

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, got.Running())
	assert.Equal(t, 7, got.Iterations)
	assert.Equal(t, 3, got.ExitCode)
	assert.Equal(t, "exit-code", got.Reason)
	assert.Empty(t, got.Error)
}

func TestCreateRun_DefaultsMode(t *testing.T) {
	s := newTestStore(t)
	run := &models.Run{Command: "loop"}
	require.NoError(t, s.CreateRun(context.Background(), run))
	assert.Equal(t, models.RunModeForeground, run.Mode)
}

func TestFinishRun_RecordsError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &models.Run{Command: "loop"}
	require.NoError(t, s.CreateRun(ctx, run))
	run.Reason = "error"
	run.Error = "boom"
	require.NoError(t, s.FinishRun(ctx, run))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Error)
}

func TestFinishRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), &models.Run{ID: "nope"})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, r := range []*models.Run{
		{Command: "heartbeat", Mode: models.RunModeDaemon},
		{Command: "loop", Mode: models.RunModeForeground},
		{Command: "heartbeat", Mode: models.RunModeForeground},
	} {
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.CreateRun(ctx, r))
	}

	all, err := s.ListRuns(ctx, RunListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, base.Add(2*time.Minute), all[0].StartedAt.UTC(), "newest first")

	hb, err := s.ListRuns(ctx, RunListFilter{Command: "heartbeat"})
	require.NoError(t, err)
	assert.Len(t, hb, 2)

	daemons, err := s.ListRuns(ctx, RunListFilter{Mode: models.RunModeDaemon})
	require.NoError(t, err)
	require.Len(t, daemons, 1)
	assert.Equal(t, "heartbeat", daemons[0].Command)

	limited, err := s.ListRuns(ctx, RunListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListRuns_Empty(t *testing.T) {
	s := newTestStore(t)
	runs, err := s.ListRuns(context.Background(), RunListFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRunsBefore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &models.Run{Command: "loop", StartedAt: time.Now().UTC().Add(-48 * time.Hour)}
	require.NoError(t, s.CreateRun(ctx, old))
	require.NoError(t, s.FinishRun(ctx, old))

	unfinished := &models.Run{Command: "loop", StartedAt: time.Now().UTC().Add(-48 * time.Hour)}
	require.NoError(t, s.CreateRun(ctx, unfinished))

	recent := &models.Run{Command: "loop"}
	require.NoError(t, s.CreateRun(ctx, recent))
	require.NoError(t, s.FinishRun(ctx, recent))

	n, err := s.DeleteRunsBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetRun(ctx, old.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.GetRun(ctx, unfinished.ID)
	assert.NoError(t, err, "running entries are kept")
}

func TestRun_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := start.Add(90 * time.Second)

	r := &models.Run{StartedAt: start}
	assert.Equal(t, 10*time.Second, r.Duration(start.Add(10*time.Second)))

	r.StoppedAt = &stop
	assert.Equal(t, 90*time.Second, r.Duration(start.Add(time.Hour)))
}
