package sweeper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/testutil"
)

func put(t *testing.T, store *testutil.FakeBlobStore, path string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), path, strings.NewReader("x"), 1, "text/plain"))
	store.Touch(path, at)
}

func TestSweepRemovesOldOrphans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := testutil.SetupTestRepo(t)
	store := testutil.NewFakeBlobStore()
	now := testutil.Epoch

	task, err := repo.CreateTask(ctx, models.Task{Title: "t", Status: models.StatusPending, Priority: models.PriorityLow, UserID: "alice"})
	require.NoError(t, err)
	_, err = repo.CreateAttachment(ctx, models.TaskAttachment{
		TaskID: task.ID, UserID: "alice", FileName: "kept.txt",
		FilePath: "alice/" + task.ID + "/kept.txt", FileSize: 1, FileType: "text/plain",
	})
	require.NoError(t, err)

	put(t, store, "alice/"+task.ID+"/kept.txt", now.Add(-48*time.Hour))
	put(t, store, "alice/"+task.ID+"/leaked.txt", now.Add(-48*time.Hour))
	put(t, store, "alice/"+task.ID+"/fresh.txt", now.Add(-time.Minute))

	s := New(repo, store, Config{GracePeriod: 24 * time.Hour}, WithClock(func() time.Time { return now }))
	res, err := s.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, Result{Scanned: 3, Orphans: 1, Removed: 1}, res)

	ok, _ := store.Exists(ctx, "alice/"+task.ID+"/leaked.txt")
	assert.False(t, ok)
	ok, _ = store.Exists(ctx, "alice/"+task.ID+"/kept.txt")
	assert.True(t, ok)
	ok, _ = store.Exists(ctx, "alice/"+task.ID+"/fresh.txt")
	assert.True(t, ok, "blobs inside the grace period are kept")
}

func TestSweepCountsFailures(t *testing.T) {
	t.Parallel()

	repo := testutil.SetupTestRepo(t)
	store := testutil.NewFakeBlobStore()
	put(t, store, "alice/t/leaked.txt", testutil.Epoch.Add(-48*time.Hour))
	store.RemoveErr = errors.New("denied")

	s := New(repo, store, Config{GracePeriod: time.Hour}, WithClock(func() time.Time { return testutil.Epoch }))
	res, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Removed)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := New(testutil.SetupTestRepo(t), testutil.NewFakeBlobStore(), Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Running())
	assert.Error(t, s.Start(ctx))

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
}

func TestStartStopsWithContext(t *testing.T) {
	t.Parallel()

	s := New(testutil.SetupTestRepo(t), testutil.NewFakeBlobStore(), Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()
	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, 10*time.Millisecond)
}
