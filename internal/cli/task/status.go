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
)

// StatusCmd returns the task status subcommand
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <id> <pending|in_progress|completed>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE:  handler.Command(runStatus),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runStatus(ctx context.Context, env *handler.Env) error {
	task, err := env.CLI.App.TaskService.UpdateTaskStatus(ctx, env.Args[0], env.Owner, models.TaskStatus(env.Args[1]))
	if err != nil {
		return err
	}

	return env.Success("task", task, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Task '%s' is now %s\n", task.Title, styles.RenderStatus(task.Status))
	})
}
