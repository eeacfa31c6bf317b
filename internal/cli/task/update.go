package task

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
)

// UpdateCmd returns the task update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task",
		Long: `Update the given fields of a task. Fields not passed are left unchanged.

Examples:
  taskmanager task update <id> --title="New title"
  taskmanager task update <id> --priority=high --due=2026-03-01
  taskmanager task update <id> --clear-project
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runUpdate),
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("description", "", "New description (use - for stdin, empty to clear)")
	cmd.Flags().String("status", "", "New status")
	cmd.Flags().String("priority", "", "New priority")
	cmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().String("category", "", "New category ID")
	cmd.Flags().String("project", "", "New project ID")
	cmd.Flags().Bool("clear-due", false, "Remove the due date")
	cmd.Flags().Bool("clear-category", false, "Remove the category")
	cmd.Flags().Bool("clear-project", false, "Remove the project")

	cli.AddAgentFlags(cmd)

	return cmd
}

func runUpdate(ctx context.Context, env *handler.Env) error {
	flags := env.Flags

	due, err := flags.OptionalDate("due")
	if err != nil {
		return env.Formatter.Usage(err, "Dates use the YYYY-MM-DD format")
	}

	description := flags.OptionalString("description")
	if description != nil {
		d, err := cli.ReadDescription(*description, env.Cmd.InOrStdin())
		if err != nil {
			return &cli.ExitCodeError{Code: cli.ExitDataErr, Err: err}
		}
		description = &d
	}

	clearDue, _ := env.Cmd.Flags().GetBool("clear-due")
	clearCategory, _ := env.Cmd.Flags().GetBool("clear-category")
	clearProject, _ := env.Cmd.Flags().GetBool("clear-project")

	task, err := env.CLI.App.TaskService.UpdateTask(ctx, taskservice.UpdateTaskRequest{
		ID:            env.Args[0],
		OwnerID:       env.Owner,
		Title:         flags.OptionalString("title"),
		Description:   description,
		Status:        flags.OptionalStatus("status"),
		Priority:      flags.OptionalPriority("priority"),
		DueDate:       due,
		CategoryID:    flags.OptionalString("category"),
		ProjectID:     flags.OptionalString("project"),
		ClearDueDate:  clearDue,
		ClearCategory: clearCategory,
		ClearProject:  clearProject,
	})
	if err != nil {
		return err
	}

	return env.Success("task", task, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Task '%s' updated\n", task.Title)
	})
}
