package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	require.Error(t, err)
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "taskmanager.db")

	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	created, err := NewRepository(db).CreateCategory(ctx, models.Category{Name: "Work", Color: "#FF0000", UserID: ownerA})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopening runs the migrations again over the existing schema
	db, err = Open(ctx, Config{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := NewRepository(db).GetCategory(ctx, created.ID, ownerA)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
}

func TestProjectCRUD(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	older, err := env.repo.CreateProject(ctx, models.Project{Name: "Old", Status: models.ProjectActive, UserID: ownerA})
	require.NoError(t, err)
	newer, err := env.repo.CreateProject(ctx, models.Project{Name: "New", Description: strPtr("d"), Status: models.ProjectOnHold, UserID: ownerA})
	require.NoError(t, err)

	projects, err := env.repo.ListProjects(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, newer.ID, projects[0].ID)
	assert.Equal(t, older.ID, projects[1].ID)

	updated, err := env.repo.UpdateProject(ctx, older.ID, ownerA, func(p *models.Project) error {
		p.Status = models.ProjectCompleted
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectCompleted, updated.Status)
	assert.Equal(t, "Old", updated.Name)

	_, err = env.repo.GetProject(ctx, older.ID, ownerB)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteProject_DetachesTasks(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	project, err := env.repo.CreateProject(ctx, models.Project{Name: "Doomed", Status: models.ProjectActive, UserID: ownerA})
	require.NoError(t, err)
	in := newTask(ownerA, "survivor")
	in.ProjectID = &project.ID
	task, err := env.repo.CreateTask(ctx, in)
	require.NoError(t, err)
	env.pub.reset()

	_, err = env.repo.DeleteProject(ctx, project.ID, ownerA)
	require.NoError(t, err)

	got, err := env.repo.GetTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))

	changes := env.pub.all()
	require.Len(t, changes, 2)
	assert.Equal(t, models.TableTasks, changes[0].Table)
	assert.Equal(t, events.ChangeUpdate, changes[0].Kind)
	assert.Equal(t, models.TableProjects, changes[1].Table)
	assert.Equal(t, events.ChangeDelete, changes[1].Kind)

	_, err = env.repo.DeleteProject(ctx, project.ID, ownerA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCategoryCRUD(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	cat, err := env.repo.CreateCategory(ctx, models.Category{Name: "Home", Color: models.DefaultCategoryColor, UserID: ownerA})
	require.NoError(t, err)

	in := newTask(ownerA, "Clean")
	in.CategoryID = &cat.ID
	task, err := env.repo.CreateTask(ctx, in)
	require.NoError(t, err)

	renamed, err := env.repo.UpdateCategory(ctx, cat.ID, ownerA, func(c *models.Category) error {
		c.Name = "House"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "House", renamed.Name)

	cats, err := env.repo.ListCategories(ctx, ownerB)
	require.NoError(t, err)
	assert.Empty(t, cats)

	_, err = env.repo.DeleteCategory(ctx, cat.ID, ownerA)
	require.NoError(t, err)

	got, err := env.repo.GetTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestAttachments(t *testing.T) {
	env := setupTestRepo(t)
	ctx := context.Background()

	task, err := env.repo.CreateTask(ctx, newTask(ownerA, "with files"))
	require.NoError(t, err)

	first, err := env.repo.CreateAttachment(ctx, models.TaskAttachment{
		TaskID: task.ID, UserID: ownerA, FileName: "a.txt",
		FilePath: ownerA + "/" + task.ID + "/a.txt", FileSize: 3, FileType: "text/plain",
	})
	require.NoError(t, err)
	second, err := env.repo.CreateAttachment(ctx, models.TaskAttachment{
		TaskID: task.ID, UserID: ownerA, FileName: "b.png",
		FilePath: ownerA + "/" + task.ID + "/b.png", FileSize: 10, FileType: "image/png",
	})
	require.NoError(t, err)

	list, err := env.repo.ListAttachments(ctx, task.ID, ownerA)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	tasks, err := env.repo.ListTasks(ctx, ownerA, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Len(t, tasks[0].Attachments, 2)

	paths, err := env.repo.AttachmentPaths(ctx)
	require.NoError(t, err)
	assert.Contains(t, paths, first.FilePath)

	_, err = env.repo.GetAttachment(ctx, first.ID, ownerB)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = env.repo.DeleteAttachment(ctx, first.ID, ownerA)
	require.NoError(t, err)
	_, err = env.repo.DeleteAttachment(ctx, first.ID, ownerA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// Remaining records cascade with their task
	_, err = env.repo.DeleteTask(ctx, task.ID, ownerA)
	require.NoError(t, err)
	_, err = env.repo.GetAttachment(ctx, second.ID, ownerA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateAttachment_UnknownTaskIsValidation(t *testing.T) {
	env := setupTestRepo(t)

	_, err := env.repo.CreateAttachment(context.Background(), models.TaskAttachment{
		TaskID: "00000000-0000-4000-8000-999999999999", UserID: ownerA, FileName: "a",
		FilePath: "p", FileSize: 1, FileType: "text/plain",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
