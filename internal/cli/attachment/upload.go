package attachment

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	attachmentservice "github.com/furkanakkurt/taskmanager/internal/services/attachment"
)

// UploadCmd returns the attachment upload subcommand
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Attach a file to a task",
		Long: `Upload a file and attach it to a task. A file with the same name on the
same task is replaced in storage.

Examples:
  taskmanager attachment upload ./notes.txt --task=<task-id>
  taskmanager attachment upload ./scan.bin --task=<task-id> --name=receipt.pdf --type=application/pdf
`,
		Args: cobra.ExactArgs(1),
		RunE: handler.Command(runUpload),
	}

	cmd.Flags().String("task", "", "Task ID (required)")
	if err := cmd.MarkFlagRequired("task"); err != nil {
		log.Printf("Error marking flag as required: %v", err)
	}
	cmd.Flags().String("name", "", "Stored file name (defaults to the base name of <file>)")
	cmd.Flags().String("type", "", "Content type (detected from the content when empty)")

	cli.AddAgentFlags(cmd)

	return cmd
}

func runUpload(ctx context.Context, env *handler.Env) error {
	path := env.Args[0]
	f, err := os.Open(path)
	if err != nil {
		return apperr.Validationf("cannot open %s: %v", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return apperr.Validationf("%s is a directory", path)
	}

	name := env.Flags.String("name")
	if name == "" {
		name = filepath.Base(path)
	}

	attachment, err := env.CLI.App.AttachmentService.Upload(ctx, attachmentservice.UploadRequest{
		OwnerID:     env.Owner,
		TaskID:      env.Flags.String("task"),
		FileName:    name,
		ContentType: env.Flags.String("type"),
		Size:        info.Size(),
		Body:        f,
	})
	if err != nil {
		return err
	}

	return env.Success("attachment", attachment, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Uploaded %s (ID: %s)\n", attachment.FileName, attachment.ID)
		printAttachment(w, attachment)
	})
}
