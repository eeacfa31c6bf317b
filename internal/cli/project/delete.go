package project

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
)

// DeleteCmd returns the project delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Long:  "Delete a project. Its tasks are kept and lose their project reference.",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runDelete),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runDelete(ctx context.Context, env *handler.Env) error {
	id := env.Args[0]
	if err := env.CLI.App.ProjectService.DeleteProject(ctx, id, env.Owner); err != nil {
		return err
	}

	return env.Success("deleted", map[string]string{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Project %s deleted\n", id)
	})
}
