package attachment

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// AttachmentCmd returns the attachment parent command
func AttachmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachment",
		Aliases: []string{"file"},
		Short:   "Manage task attachments",
	}

	cmd.AddCommand(UploadCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(URLCmd())
	cmd.AddCommand(DeleteCmd())

	return cmd
}

func printAttachment(w io.Writer, a models.TaskAttachment) {
	fmt.Fprintf(w, "  [%s] %s %s\n", a.ID, styles.TitleStyle.Render(a.FileName),
		styles.LabelStyle.Render(fmt.Sprintf("(%s, %s)", cli.FormatSize(a.FileSize), a.FileType)))
	if a.URL != "" {
		fmt.Fprintf(w, "      %s\n", a.URL)
	}
}
