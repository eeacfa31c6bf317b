package task

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// ShowCmd returns the task show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Long:  "Display all details of a task including description, category, project and attachments.",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runShow),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

// taskDetail is the task with its resolved references
type taskDetail struct {
	models.Task
	Category *models.Category `json:"category,omitempty"`
	Project  *models.Project  `json:"project,omitempty"`
}

func runShow(ctx context.Context, env *handler.Env) error {
	app := env.CLI.App

	task, err := app.TaskService.GetTask(ctx, env.Args[0], env.Owner)
	if err != nil {
		return err
	}

	attachments, err := app.AttachmentService.ListAttachments(ctx, task.ID, env.Owner)
	if err != nil {
		return err
	}
	task.Attachments = attachments

	detail := taskDetail{Task: task}
	if task.CategoryID != nil {
		if c, err := app.CategoryService.GetCategory(ctx, *task.CategoryID, env.Owner); err == nil {
			detail.Category = &c
		}
	}
	if task.ProjectID != nil {
		if p, err := app.ProjectService.GetProject(ctx, *task.ProjectID, env.Owner); err == nil {
			detail.Project = &p
		}
	}

	return env.Success("task", detail, func(w io.Writer) {
		fmt.Fprintln(w, styles.RenderCard(renderDetail(detail)))
	})
}

func renderDetail(d taskDetail) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(d.ID))
	b.WriteString("\n\n")

	b.WriteString(styles.RenderField("Status", styles.RenderStatus(d.Status)) + "\n")
	b.WriteString(styles.RenderField("Priority", styles.RenderPriority(d.Priority)) + "\n")
	b.WriteString(styles.RenderField("Due", cli.FormatDate(d.DueDate)) + "\n")
	if d.Category != nil {
		b.WriteString(styles.RenderField("Category", styles.RenderCategoryChip(*d.Category)) + "\n")
	}
	if d.Project != nil {
		b.WriteString(styles.RenderField("Project", d.Project.Name) + "\n")
	}
	b.WriteString(styles.RenderField("Created", d.CreatedAt.Format("2006-01-02 15:04")) + "\n")
	b.WriteString(styles.RenderField("Updated", d.UpdatedAt.Format("2006-01-02 15:04")))

	if desc := d.DescriptionOrEmpty(); desc != "" {
		b.WriteString("\n")
		b.WriteString(styles.SectionStyle.Render("Description"))
		b.WriteString("\n")
		b.WriteString(desc)
	}

	if len(d.Attachments) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.SectionStyle.Render("Attachments"))
		for _, a := range d.Attachments {
			fmt.Fprintf(&b, "\n• %s (%s, %s)", a.FileName, cli.FormatSize(a.FileSize), a.FileType)
		}
	}

	return b.String()
}
