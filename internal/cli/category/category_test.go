package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/models"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
	clitest "github.com/furkanakkurt/taskmanager/internal/testutil/cli"
)

func TestCreateCategory(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)

	t.Run("Default color", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--name", "Work", "--json"})
		require.NoError(t, res.Err)

		var c models.Category
		clitest.DecodeJSON(t, res.Stdout, "category", &c)
		assert.Equal(t, "Work", c.Name)
		assert.Equal(t, models.DefaultCategoryColor, c.Color)
	})

	t.Run("Custom color is uppercased", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--name", "Home", "--color", "#10b981", "--json"})
		require.NoError(t, res.Err)

		var c models.Category
		clitest.DecodeJSON(t, res.Stdout, "category", &c)
		assert.Equal(t, "#10B981", c.Color)
	})

	t.Run("Invalid colors", func(t *testing.T) {
		for _, color := range []string{"FF0000", "#FFF", "#GGGGGG", "#FF00000"} {
			res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--name", "Bad", "--color", color})
			assert.Equal(t, cli.ExitValidation, res.ExitCode(), color)
		}
	})
}

func TestListUpdateDeleteCategory(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)
	ctx := context.Background()

	res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--name", "Work", "--quiet"})
	require.NoError(t, res.Err)

	res = clitest.ExecuteCLICommand(t, app, ListCmd(), []string{"--json"})
	require.NoError(t, res.Err)
	var list []models.Category
	clitest.DecodeJSON(t, res.Stdout, "categories", &list)
	require.Len(t, list, 1)
	created := list[0]

	task, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "Call bank", CategoryID: &created.ID})
	require.NoError(t, err)

	res = clitest.ExecuteCLICommand(t, app, UpdateCmd(), []string{created.ID, "--name", "Office", "--json"})
	require.NoError(t, res.Err)
	var updated models.Category
	clitest.DecodeJSON(t, res.Stdout, "category", &updated)
	assert.Equal(t, "Office", updated.Name)
	assert.Equal(t, created.Color, updated.Color)

	res = clitest.ExecuteCLICommand(t, app, DeleteCmd(), []string{created.ID, "--user", "bob"})
	assert.Equal(t, cli.ExitNotFound, res.ExitCode(), "another user cannot delete it")

	res = clitest.ExecuteCLICommand(t, app, DeleteCmd(), []string{created.ID})
	require.NoError(t, res.Err)

	got, err := app.TaskService.GetTask(ctx, task.ID, clitest.TestUser)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}
