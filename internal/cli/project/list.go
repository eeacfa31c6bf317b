package project

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// ListCmd returns the project list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long:  "List your projects, most recently created first.",
		RunE:  handler.Command(runList),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runList(ctx context.Context, env *handler.Env) error {
	projects, err := env.CLI.App.ProjectService.ListProjects(ctx, env.Owner)
	if err != nil {
		return err
	}

	return env.Success("projects", projects, func(w io.Writer) {
		PrintProjects(w, projects)
	})
}

// PrintProjects writes the human-readable project list
func PrintProjects(w io.Writer, projects []models.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found")
		return
	}

	fmt.Fprintf(w, "Found %d projects:\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(w, "  [%s] %s (%s)\n", p.ID, p.Name, p.Status)
	}
}
