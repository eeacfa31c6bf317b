package task

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/models"
	attachmentservice "github.com/furkanakkurt/taskmanager/internal/services/attachment"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
	clitest "github.com/furkanakkurt/taskmanager/internal/testutil/cli"
)

func TestCreateTask_Positive(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)

	t.Run("Create task with title only", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--title", "Simple Task", "--quiet"})
		require.NoError(t, res.Err)

		id := strings.TrimSpace(res.Stdout)
		task, err := app.TaskService.GetTask(context.Background(), id, clitest.TestUser)
		require.NoError(t, err)
		assert.Equal(t, "Simple Task", task.Title)
		assert.Equal(t, models.StatusPending, task.Status)
		assert.Equal(t, models.PriorityMedium, task.Priority)
	})

	t.Run("Create task with all fields", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{
			"--title", "Detailed Task",
			"--description", "This is a detailed description",
			"--priority", "high",
			"--status", "in_progress",
			"--due", "2026-03-01",
			"--json",
		})
		require.NoError(t, res.Err)

		var task models.Task
		clitest.DecodeJSON(t, res.Stdout, "task", &task)
		assert.Equal(t, "Detailed Task", task.Title)
		assert.Equal(t, "This is a detailed description", task.DescriptionOrEmpty())
		assert.Equal(t, models.PriorityHigh, task.Priority)
		assert.Equal(t, models.StatusInProgress, task.Status)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, "2026-03-01", task.DueDate.Format(cli.DateLayout))
	})

	t.Run("Description from stdin", func(t *testing.T) {
		res := clitest.ExecuteCLICommandWithInput(t, app, CreateCmd(),
			[]string{"--title", "Piped", "--description", "-", "--json"},
			strings.NewReader("from stdin"))
		require.NoError(t, res.Err)

		var task models.Task
		clitest.DecodeJSON(t, res.Stdout, "task", &task)
		assert.Equal(t, "from stdin", task.DescriptionOrEmpty())
	})

	t.Run("Human output", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, CreateCmd(), []string{"--title", "Readable"})
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stdout, "Task 'Readable' created successfully")
	})
}

func TestCreateTask_Negative(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"invalid priority", []string{"--title", "x", "--priority", "urgent"}, cli.ExitValidation},
		{"invalid status", []string{"--title", "x", "--status", "done"}, cli.ExitValidation},
		{"blank title", []string{"--title", "   "}, cli.ExitValidation},
		{"bad due date", []string{"--title", "x", "--due", "tomorrow"}, cli.ExitUsage},
		{"unknown project", []string{"--title", "x", "--project", "00000000-0000-4000-8000-000000000042"}, cli.ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := clitest.ExecuteCLICommand(t, app, CreateCmd(), append(tt.args, "--json"))
			require.Error(t, res.Err)
			assert.Equal(t, tt.code, res.ExitCode())

			out := clitest.ParseJSON(t, res.Stdout)
			assert.Equal(t, false, out["success"])
		})
	}

	list, err := app.TaskService.ListTasks(context.Background(), clitest.TestUser, taskservice.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListTasks(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)
	ctx := context.Background()

	a, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "A"})
	require.NoError(t, err)
	b, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "B", Priority: models.PriorityHigh})
	require.NoError(t, err)
	_, err = app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: "bob", Title: "Not mine"})
	require.NoError(t, err)

	t.Run("Newest first, owner only", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, ListCmd(), []string{"--quiet"})
		require.NoError(t, res.Err)
		assert.Equal(t, b.ID+"\n"+a.ID+"\n", res.Stdout)
	})

	t.Run("Filter by priority", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, ListCmd(), []string{"--priority", "high", "--json"})
		require.NoError(t, res.Err)

		var tasks []models.Task
		clitest.DecodeJSON(t, res.Stdout, "tasks", &tasks)
		require.Len(t, tasks, 1)
		assert.Equal(t, "B", tasks[0].Title)
	})

	t.Run("Other user", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, ListCmd(), []string{"--user", "bob", "--json"})
		require.NoError(t, res.Err)

		var tasks []models.Task
		clitest.DecodeJSON(t, res.Stdout, "tasks", &tasks)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Not mine", tasks[0].Title)
	})

	t.Run("Empty human list", func(t *testing.T) {
		res := clitest.ExecuteCLICommand(t, app, ListCmd(), []string{"--user", "carol"})
		require.NoError(t, res.Err)
		assert.Contains(t, res.Stdout, "No tasks found")
	})
}

func TestShowTask(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)
	ctx := context.Background()

	task, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "Draft plan", Description: "first pass"})
	require.NoError(t, err)
	_, err = app.AttachmentService.Upload(ctx, attachmentservice.UploadRequest{
		OwnerID:  clitest.TestUser,
		TaskID:   task.ID,
		FileName: "notes.txt",
		Body:     strings.NewReader("meeting notes"),
	})
	require.NoError(t, err)

	res := clitest.ExecuteCLICommand(t, app, ShowCmd(), []string{task.ID, "--json"})
	require.NoError(t, res.Err)

	var shown models.Task
	clitest.DecodeJSON(t, res.Stdout, "task", &shown)
	assert.Equal(t, "Draft plan", shown.Title)
	require.Len(t, shown.Attachments, 1)
	assert.Equal(t, "notes.txt", shown.Attachments[0].FileName)
	assert.NotEmpty(t, shown.Attachments[0].URL)

	res = clitest.ExecuteCLICommand(t, app, ShowCmd(), []string{task.ID})
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "Draft plan")
	assert.Contains(t, res.Stdout, "notes.txt")

	res = clitest.ExecuteCLICommand(t, app, ShowCmd(), []string{task.ID, "--user", "bob"})
	assert.Equal(t, cli.ExitNotFound, res.ExitCode())
}

func TestUpdateTask(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)
	ctx := context.Background()

	due := "2026-03-01"
	task, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "Draft plan"})
	require.NoError(t, err)

	res := clitest.ExecuteCLICommand(t, app, UpdateCmd(), []string{task.ID, "--title", "Final plan", "--due", due, "--json"})
	require.NoError(t, res.Err)

	var updated models.Task
	clitest.DecodeJSON(t, res.Stdout, "task", &updated)
	assert.Equal(t, "Final plan", updated.Title)
	require.NotNil(t, updated.DueDate)

	res = clitest.ExecuteCLICommand(t, app, UpdateCmd(), []string{task.ID, "--clear-due", "--json"})
	require.NoError(t, res.Err)
	clitest.DecodeJSON(t, res.Stdout, "task", &updated)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Final plan", updated.Title)

	res = clitest.ExecuteCLICommand(t, app, UpdateCmd(), []string{task.ID})
	assert.Equal(t, cli.ExitValidation, res.ExitCode(), "an update with no fields is rejected")
}

func TestTaskStatus(t *testing.T) {
	app, _ := clitest.SetupCLITest(t)
	ctx := context.Background()

	task, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "Draft plan"})
	require.NoError(t, err)

	res := clitest.ExecuteCLICommand(t, app, StatusCmd(), []string{task.ID, "completed"})
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "is now")

	got, err := app.TaskService.GetTask(ctx, task.ID, clitest.TestUser)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	res = clitest.ExecuteCLICommand(t, app, StatusCmd(), []string{task.ID, "finished"})
	assert.Equal(t, cli.ExitValidation, res.ExitCode())
}

func TestDeleteTask(t *testing.T) {
	app, store := clitest.SetupCLITest(t)
	ctx := context.Background()

	task, err := app.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{OwnerID: clitest.TestUser, Title: "Draft plan"})
	require.NoError(t, err)
	_, err = app.AttachmentService.Upload(ctx, attachmentservice.UploadRequest{
		OwnerID:  clitest.TestUser,
		TaskID:   task.ID,
		FileName: "notes.txt",
		Body:     strings.NewReader("meeting notes"),
	})
	require.NoError(t, err)

	res := clitest.ExecuteCLICommand(t, app, DeleteCmd(), []string{task.ID})
	require.NoError(t, res.Err)
	assert.Contains(t, res.Stdout, "deleted")
	assert.Zero(t, store.Len())

	res = clitest.ExecuteCLICommand(t, app, DeleteCmd(), []string{task.ID, "--json"})
	assert.Equal(t, cli.ExitNotFound, res.ExitCode())
	out := clitest.ParseJSON(t, res.Stdout)
	errData := out["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errData["code"])
}
