package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

const (
	ownerA = "11111111-1111-4111-8111-111111111111"
	ownerB = "22222222-2222-4222-8222-222222222222"
)

func newTask(owner, title string) models.Task {
	return models.Task{
		Title:    title,
		Status:   models.StatusPending,
		Priority: models.PriorityMedium,
		UserID:   owner,
	}
}

func TestCreateTask_AssignsIdentityAndTimestamps(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	in := newTask(ownerA, "Write report")
	in.Description = strPtr("quarterly")
	in.DueDate = &due

	task, err := env.repo.CreateTask(ctx, in)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, "quarterly", task.DescriptionOrEmpty())
	assert.False(t, task.CreatedAt.IsZero())
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt))
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
	assert.Equal(t, time.UTC, task.CreatedAt.Location())

	got, err := env.repo.GetTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.True(t, got.UpdatedAt.Equal(task.UpdatedAt))
}

func TestListTasks_NewestFirstAndOwnerScoped(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	first, err := env.repo.CreateTask(ctx, newTask(ownerA, "first"))
	require.NoError(t, err)
	second, err := env.repo.CreateTask(ctx, newTask(ownerA, "second"))
	require.NoError(t, err)
	_, err = env.repo.CreateTask(ctx, newTask(ownerB, "someone else's"))
	require.NoError(t, err)

	tasks, err := env.repo.ListTasks(ctx, ownerA, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID)
	assert.Equal(t, first.ID, tasks[1].ID)

	empty, err := env.repo.ListTasks(ctx, "33333333-3333-4333-8333-333333333333", TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListTasks_Filters(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	project, err := env.repo.CreateProject(ctx, models.Project{Name: "Launch", Status: models.ProjectActive, UserID: ownerA})
	require.NoError(t, err)

	inProject := newTask(ownerA, "Draft press release")
	inProject.ProjectID = &project.ID
	inProject.Priority = models.PriorityHigh
	_, err = env.repo.CreateTask(ctx, inProject)
	require.NoError(t, err)

	done := newTask(ownerA, "Book venue")
	done.Status = models.StatusCompleted
	done.Description = strPtr("Call the DRAFT contact")
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	done.DueDate = &due
	_, err = env.repo.CreateTask(ctx, done)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{"project", TaskFilter{ProjectID: project.ID}, []string{"Draft press release"}},
		{"status", TaskFilter{Status: models.StatusCompleted}, []string{"Book venue"}},
		{"priority", TaskFilter{Priority: models.PriorityHigh}, []string{"Draft press release"}},
		{"search matches title and description case-insensitively", TaskFilter{Search: "draft"}, []string{"Book venue", "Draft press release"}},
		{"due range", TaskFilter{DueAfter: timePtr(due.Add(-time.Hour)), DueBefore: timePtr(due.Add(time.Hour))}, []string{"Book venue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := env.repo.ListTasks(ctx, ownerA, tt.filter)
			require.NoError(t, err)
			titles := make([]string, len(tasks))
			for i, task := range tasks {
				titles[i] = task.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "before"))
	require.NoError(t, err)

	updated, err := env.repo.UpdateTask(ctx, task.ID, ownerA, func(t *models.Task) error {
		t.Title = "after"
		t.Status = models.StatusInProgress
		t.UserID = ownerB // ignored
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "after", updated.Title)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, ownerA, updated.UserID)
	assert.True(t, updated.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(task.UpdatedAt))
}

func TestUpdateTask_VersionAlwaysAdvances(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewRepository(env.repo.DB(), WithClock(func() time.Time { return frozen }))

	task, err := repo.CreateTask(ctx, newTask(ownerA, "t"))
	require.NoError(t, err)

	v1, err := repo.UpdateTask(ctx, task.ID, ownerA, func(t *models.Task) error { t.Title = "t1"; return nil })
	require.NoError(t, err)
	v2, err := repo.UpdateTask(ctx, task.ID, ownerA, func(t *models.Task) error { t.Title = "t2"; return nil })
	require.NoError(t, err)

	assert.True(t, v1.UpdatedAt.After(task.UpdatedAt))
	assert.True(t, v2.UpdatedAt.After(v1.UpdatedAt))
}

func TestTaskMutations_WrongOwnerIsNotFound(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "private"))
	require.NoError(t, err)

	_, err = env.repo.GetTask(ctx, task.ID, ownerB)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.repo.UpdateTask(ctx, task.ID, ownerB, func(t *models.Task) error { t.Title = "stolen"; return nil })
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.repo.DeleteTask(ctx, task.ID, ownerB)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := env.repo.GetTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	assert.Equal(t, "private", got.Title)
}

func TestDeleteTask_SecondDeleteIsNotFound(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "gone soon"))
	require.NoError(t, err)

	deleted, err := env.repo.DeleteTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)

	_, err = env.repo.DeleteTask(ctx, task.ID, ownerA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTaskMutations_PublishChanges(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "tracked"))
	require.NoError(t, err)
	_, err = env.repo.UpdateTask(ctx, task.ID, ownerA, func(t *models.Task) error { t.Title = "tracked!"; return nil })
	require.NoError(t, err)
	_, err = env.repo.DeleteTask(ctx, task.ID, ownerA)
	require.NoError(t, err)

	changes := env.pub.all()
	require.Len(t, changes, 3)

	kinds := []events.ChangeKind{changes[0].Kind, changes[1].Kind, changes[2].Kind}
	assert.Equal(t, []events.ChangeKind{events.ChangeInsert, events.ChangeUpdate, events.ChangeDelete}, kinds)

	for _, c := range changes {
		assert.Equal(t, models.TableTasks, c.Table)
		assert.Equal(t, ownerA, c.OwnerID)
		assert.Equal(t, task.ID, c.Columns["id"])
	}

	var newRow, oldRow models.Task
	require.NoError(t, json.Unmarshal(changes[1].New, &newRow))
	require.NoError(t, json.Unmarshal(changes[1].Old, &oldRow))
	assert.Equal(t, "tracked!", newRow.Title)
	assert.Equal(t, "tracked", oldRow.Title)

	assert.Nil(t, changes[2].New)
	assert.NotNil(t, changes[2].Old)
}

func TestFailedMutation_PublishesNothing(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	_, err := env.repo.UpdateTask(ctx, "00000000-0000-4000-8000-999999999999", ownerA, func(t *models.Task) error { return nil })
	require.Error(t, err)

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "t"))
	require.NoError(t, err)
	env.pub.reset()

	rejected := apperr.Validation("nope")
	_, err = env.repo.UpdateTask(ctx, task.ID, ownerA, func(t *models.Task) error { return rejected })
	assert.ErrorIs(t, err, rejected)
	assert.Empty(t, env.pub.all())
}

func TestCountTasksByStatus(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	project, err := env.repo.CreateProject(ctx, models.Project{Name: "P", Status: models.ProjectActive, UserID: ownerA})
	require.NoError(t, err)

	for _, status := range []models.TaskStatus{models.StatusPending, models.StatusCompleted, models.StatusCompleted} {
		task := newTask(ownerA, "t")
		task.Status = status
		task.ProjectID = &project.ID
		_, err := env.repo.CreateTask(ctx, task)
		require.NoError(t, err)
	}
	_, err = env.repo.CreateTask(ctx, newTask(ownerA, "outside"))
	require.NoError(t, err)

	counts, err := env.repo.CountTasksByStatus(ctx, project.ID, ownerA)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[models.StatusPending])
	assert.Equal(t, 2, counts[models.StatusCompleted])
	assert.Equal(t, 0, counts[models.StatusInProgress])
}

func timePtr(t time.Time) *time.Time { return &t }
