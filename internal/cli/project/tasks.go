package project

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
)

// TasksCmd returns the project tasks subcommand
func TasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks <id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runTasks),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runTasks(ctx context.Context, env *handler.Env) error {
	tasks, err := env.CLI.App.ProjectService.ListProjectTasks(ctx, env.Args[0], env.Owner)
	if err != nil {
		return err
	}

	return env.Success("tasks", tasks, func(w io.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(w, "No tasks in this project")
			return
		}
		for _, t := range tasks {
			fmt.Fprintf(w, "  [%s] %s  %s\n", t.ID, t.Title, styles.RenderStatus(t.Status))
		}
	})
}

// StatsCmd returns the project stats subcommand
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show task counts and progress of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runStats),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runStats(ctx context.Context, env *handler.Env) error {
	stats, err := env.CLI.App.ProjectService.GetProjectStats(ctx, env.Args[0], env.Owner)
	if err != nil {
		return err
	}

	return env.Success("stats", stats, func(w io.Writer) {
		fmt.Fprintf(w, "Total: %d  Pending: %d  In progress: %d  Completed: %d\n",
			stats.Total, stats.Pending, stats.InProgress, stats.Completed)
		fmt.Fprintln(w, styles.RenderProgress(stats.Progress))
	})
}
