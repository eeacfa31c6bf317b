package project

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
	projectservice "github.com/furkanakkurt/taskmanager/internal/services/project"
)

// ShowCmd returns the project show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show project details and progress",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runShow),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

type projectDetail struct {
	models.Project
	Stats projectservice.Stats `json:"stats"`
}

func runShow(ctx context.Context, env *handler.Env) error {
	svc := env.CLI.App.ProjectService

	project, err := svc.GetProject(ctx, env.Args[0], env.Owner)
	if err != nil {
		return err
	}
	stats, err := svc.GetProjectStats(ctx, project.ID, env.Owner)
	if err != nil {
		return err
	}
	detail := projectDetail{Project: project, Stats: stats}

	return env.Success("project", detail, func(w io.Writer) {
		var b strings.Builder
		b.WriteString(styles.TitleStyle.Render(project.Name) + "\n")
		b.WriteString(styles.SubtitleStyle.Render(project.ID) + "\n\n")
		b.WriteString(styles.RenderField("Status", string(project.Status)) + "\n")
		b.WriteString(styles.RenderField("Tasks", fmt.Sprintf("%d (%d pending, %d in progress, %d completed)",
			stats.Total, stats.Pending, stats.InProgress, stats.Completed)) + "\n")
		b.WriteString(styles.RenderField("Progress", styles.RenderProgress(stats.Progress)))
		if project.Description != nil && *project.Description != "" {
			b.WriteString("\n" + styles.SectionStyle.Render("Description") + "\n" + *project.Description)
		}
		fmt.Fprintln(w, styles.RenderCard(b.String()))
	})
}
