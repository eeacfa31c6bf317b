package project

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/testutil"
)

const (
	alice = "alice"
	bob   = "bob"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func setupService(t *testing.T) (Service, *database.Repository) {
	t.Helper()
	clock := testutil.NewFakeClock()
	repo := testutil.SetupTestRepo(t, database.WithClock(clock.Now))
	return NewService(repo), repo
}

func createProject(t *testing.T, svc Service, owner, name string) models.Project {
	t.Helper()
	p, err := svc.CreateProject(context.Background(), CreateProjectRequest{OwnerID: owner, Name: name})
	require.NoError(t, err)
	return p
}

func addTask(t *testing.T, repo *database.Repository, owner, projectID string, status models.TaskStatus) models.Task {
	t.Helper()
	task, err := repo.CreateTask(context.Background(), models.Task{
		Title:     "task",
		Status:    status,
		Priority:  models.PriorityMedium,
		ProjectID: &projectID,
		UserID:    owner,
	})
	require.NoError(t, err)
	return task
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateProject(t *testing.T) {
	t.Parallel()
	svc, _ := setupService(t)

	p, err := svc.CreateProject(context.Background(), CreateProjectRequest{
		OwnerID:     alice,
		Name:        " Launch ",
		Description: "Q3 launch",
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch", p.Name)
	assert.Equal(t, models.ProjectActive, p.Status)
	require.NotNil(t, p.Description)
	assert.Equal(t, "Q3 launch", *p.Description)
}

func TestCreateProjectValidation(t *testing.T) {
	t.Parallel()
	svc, _ := setupService(t)

	tests := []struct {
		name string
		req  CreateProjectRequest
		want error
	}{
		{"missing owner", CreateProjectRequest{Name: "x"}, ErrOwnerRequired},
		{"empty name", CreateProjectRequest{OwnerID: alice, Name: " "}, ErrEmptyName},
		{"long name", CreateProjectRequest{OwnerID: alice, Name: strings.Repeat("n", 101)}, ErrNameTooLong},
		{"bad status", CreateProjectRequest{OwnerID: alice, Name: "x", Status: "archived"}, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestListProjectsScopedAndOrdered(t *testing.T) {
	t.Parallel()
	svc, _ := setupService(t)

	first := createProject(t, svc, alice, "First")
	second := createProject(t, svc, alice, "Second")
	createProject(t, svc, bob, "Other")

	list, err := svc.ListProjects(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()
	svc, _ := setupService(t)
	ctx := context.Background()

	p := createProject(t, svc, alice, "Launch")
	status := models.ProjectOnHold

	updated, err := svc.UpdateProject(ctx, UpdateProjectRequest{ID: p.ID, OwnerID: alice, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOnHold, updated.Status)
	assert.Equal(t, "Launch", updated.Name)

	_, err = svc.UpdateProject(ctx, UpdateProjectRequest{ID: p.ID, OwnerID: alice})
	assert.ErrorIs(t, err, ErrNoChanges)

	_, err = svc.UpdateProject(ctx, UpdateProjectRequest{ID: p.ID, OwnerID: bob, Status: &status})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProjectKeepsTasks(t *testing.T) {
	t.Parallel()
	svc, repo := setupService(t)
	ctx := context.Background()

	p := createProject(t, svc, alice, "Launch")
	task := addTask(t, repo, alice, p.ID, models.StatusPending)

	assert.ErrorIs(t, svc.DeleteProject(ctx, p.ID, bob), apperr.ErrNotFound)
	require.NoError(t, svc.DeleteProject(ctx, p.ID, alice))
	assert.ErrorIs(t, svc.DeleteProject(ctx, p.ID, alice), apperr.ErrNotFound)

	kept, err := repo.GetTask(ctx, task.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, kept.ProjectID)
}

func TestListProjectTasks(t *testing.T) {
	t.Parallel()
	svc, repo := setupService(t)
	ctx := context.Background()

	p := createProject(t, svc, alice, "Launch")
	other := createProject(t, svc, alice, "Other")
	inProject := addTask(t, repo, alice, p.ID, models.StatusPending)
	addTask(t, repo, alice, other.ID, models.StatusPending)

	tasks, err := svc.ListProjectTasks(ctx, p.ID, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, inProject.ID, tasks[0].ID)

	_, err = svc.ListProjectTasks(ctx, p.ID, bob)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetProjectStats(t *testing.T) {
	t.Parallel()
	svc, repo := setupService(t)
	ctx := context.Background()

	p := createProject(t, svc, alice, "Launch")

	stats, err := svc.GetProjectStats(ctx, p.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	addTask(t, repo, alice, p.ID, models.StatusCompleted)
	addTask(t, repo, alice, p.ID, models.StatusInProgress)
	addTask(t, repo, alice, p.ID, models.StatusPending)

	stats, err = svc.GetProjectStats(ctx, p.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Completed: 1, InProgress: 1, Pending: 1, Progress: 33}, stats)

	addTask(t, repo, alice, p.ID, models.StatusCompleted)
	stats, err = svc.GetProjectStats(ctx, p.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Progress)
}

func TestGetProjectInvalidID(t *testing.T) {
	t.Parallel()
	svc, _ := setupService(t)

	_, err := svc.GetProject(context.Background(), "42", alice)
	assert.ErrorIs(t, err, ErrInvalidProjectID)

	_, err = svc.GetProject(context.Background(), "00000000-0000-4000-8000-000000000042", alice)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
