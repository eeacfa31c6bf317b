package attachment

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
)

// DeleteCmd returns the attachment delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an attachment and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runDelete),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runDelete(ctx context.Context, env *handler.Env) error {
	id := env.Args[0]
	if err := env.CLI.App.AttachmentService.DeleteAttachment(ctx, id, env.Owner); err != nil {
		return err
	}

	return env.Success("deleted", map[string]string{"id": id}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Attachment %s deleted\n", id)
	})
}
