package task

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
	"github.com/furkanakkurt/taskmanager/internal/models"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
)

// ListCmd returns the task list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List your tasks, most recently created first.

Examples:
  taskmanager task list
  taskmanager task list --status=pending --priority=high
  taskmanager task list --search=report --due-before=2026-03-01
`,
		RunE: handler.Command(runList),
	}

	// Filters
	cmd.Flags().String("status", "", "Only tasks with this status")
	cmd.Flags().String("priority", "", "Only tasks with this priority")
	cmd.Flags().String("category", "", "Only tasks in this category")
	cmd.Flags().String("project", "", "Only tasks in this project")
	cmd.Flags().String("search", "", "Case-insensitive match on title or description")
	cmd.Flags().String("due-after", "", "Only tasks due on or after this date")
	cmd.Flags().String("due-before", "", "Only tasks due on or before this date")

	// Agent-friendly flags
	cli.AddAgentFlags(cmd)

	return cmd
}

func runList(ctx context.Context, env *handler.Env) error {
	after, err := env.Flags.OptionalDate("due-after")
	if err != nil {
		return env.Formatter.Usage(err, "Dates use the YYYY-MM-DD format")
	}
	before, err := env.Flags.OptionalDate("due-before")
	if err != nil {
		return env.Formatter.Usage(err, "Dates use the YYYY-MM-DD format")
	}

	tasks, err := env.CLI.App.TaskService.ListTasks(ctx, env.Owner, taskservice.ListFilter{
		Status:     models.TaskStatus(env.Flags.String("status")),
		Priority:   models.TaskPriority(env.Flags.String("priority")),
		CategoryID: env.Flags.String("category"),
		ProjectID:  env.Flags.String("project"),
		Search:     env.Flags.String("search"),
		DueAfter:   after,
		DueBefore:  before,
	})
	if err != nil {
		return err
	}

	return env.Success("tasks", tasks, func(w io.Writer) {
		PrintTasks(w, tasks)
	})
}

// PrintTasks writes the human-readable task list
func PrintTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}

	fmt.Fprintf(w, "Found %d tasks:\n\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(w, "  [%s] %s  %s %s  due %s\n",
			t.ID, t.Title, styles.RenderStatus(t.Status), styles.RenderPriority(t.Priority), cli.FormatDate(t.DueDate))
	}
}
