package task

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/models"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
)

// CreateCmd returns the task create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		Long: `Create a new task with specified attributes.

Examples:
  # Simple task (human-readable output)
  taskmanager task create --title="Fix bug"

  # JSON output for agents
  taskmanager task create --title="Fix bug" --json

  # Quiet mode for bash capture
  TASK_ID=$(taskmanager task create --title="Fix bug" --quiet)

  # Full example with all options
  taskmanager task create \
    --title="Write release notes" \
    --description="Cover the attachment changes" \
    --priority=high \
    --status=in_progress \
    --due=2026-03-01 \
    --category=<category-id> \
    --project=<project-id>
`,
		RunE: handler.Command(runCreate),
	}

	// Required flags
	cmd.Flags().String("title", "", "Task title (required)")
	if err := cmd.MarkFlagRequired("title"); err != nil {
		log.Printf("Error marking flag as required: %v", err)
	}

	// Optional flags
	cmd.Flags().String("description", "", "Task description (use - for stdin)")
	cmd.Flags().String("status", "", "Status: pending, in_progress, completed (default pending)")
	cmd.Flags().String("priority", "", "Priority: low, medium, high (default medium)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().String("category", "", "Category ID")
	cmd.Flags().String("project", "", "Project ID")

	// Agent-friendly flags (REQUIRED on all commands)
	cli.AddAgentFlags(cmd)

	return cmd
}

func runCreate(ctx context.Context, env *handler.Env) error {
	description, err := cli.ReadDescription(env.Flags.String("description"), env.Cmd.InOrStdin())
	if err != nil {
		return &cli.ExitCodeError{Code: cli.ExitDataErr, Err: err}
	}

	due, err := env.Flags.OptionalDate("due")
	if err != nil {
		return env.Formatter.Usage(err, "Dates use the YYYY-MM-DD format")
	}

	req := taskservice.CreateTaskRequest{
		OwnerID:     env.Owner,
		Title:       env.Flags.String("title"),
		Description: description,
		Status:      models.TaskStatus(env.Flags.String("status")),
		Priority:    models.TaskPriority(env.Flags.String("priority")),
		DueDate:     due,
	}
	if v := env.Flags.String("category"); v != "" {
		req.CategoryID = &v
	}
	if v := env.Flags.String("project"); v != "" {
		req.ProjectID = &v
	}

	task, err := env.CLI.App.TaskService.CreateTask(ctx, req)
	if err != nil {
		return err
	}

	return env.Success("task", task, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Task '%s' created successfully (ID: %s)\n", task.Title, task.ID)
		fmt.Fprintf(w, "  Status: %s\n", task.Status)
		fmt.Fprintf(w, "  Priority: %s\n", task.Priority)
		if task.DueDate != nil {
			fmt.Fprintf(w, "  Due: %s\n", cli.FormatDate(task.DueDate))
		}
	})
}
