package attachment

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
)

// URLCmd returns the attachment url subcommand. Signed URLs are minted
// fresh on every call.
func URLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "url <id>",
		Short: "Print a download URL for an attachment",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runURL),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runURL(ctx context.Context, env *handler.Env) error {
	attachment, err := env.CLI.App.AttachmentService.GetAttachment(ctx, env.Args[0], env.Owner)
	if err != nil {
		return err
	}

	if env.Formatter.Quiet {
		fmt.Fprintln(env.Formatter.Out, attachment.URL)
		return nil
	}
	return env.Success("url", map[string]string{"id": attachment.ID, "url": attachment.URL}, func(w io.Writer) {
		fmt.Fprintln(w, attachment.URL)
	})
}
