package attachment

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
)

// ListCmd returns the attachment list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the attachments of a task",
		RunE:  handler.Command(runList),
	}

	cmd.Flags().String("task", "", "Task ID (required)")
	if err := cmd.MarkFlagRequired("task"); err != nil {
		log.Printf("Error marking flag as required: %v", err)
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runList(ctx context.Context, env *handler.Env) error {
	attachments, err := env.CLI.App.AttachmentService.ListAttachments(ctx, env.Flags.String("task"), env.Owner)
	if err != nil {
		return err
	}

	return env.Success("attachments", attachments, func(w io.Writer) {
		if len(attachments) == 0 {
			fmt.Fprintln(w, "No attachments found")
			return
		}
		fmt.Fprintf(w, "Found %d attachments:\n\n", len(attachments))
		for _, a := range attachments {
			printAttachment(w, a)
		}
	})
}
