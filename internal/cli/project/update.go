package project

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/models"
	projectservice "github.com/furkanakkurt/taskmanager/internal/services/project"
)

// UpdateCmd returns the project update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runUpdate),
	}

	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("description", "", "New description (empty to clear)")
	cmd.Flags().String("status", "", "New status")

	cli.AddAgentFlags(cmd)

	return cmd
}

func runUpdate(ctx context.Context, env *handler.Env) error {
	req := projectservice.UpdateProjectRequest{
		ID:          env.Args[0],
		OwnerID:     env.Owner,
		Name:        env.Flags.OptionalString("name"),
		Description: env.Flags.OptionalString("description"),
	}
	if s := env.Flags.OptionalString("status"); s != nil {
		st := models.ProjectStatus(*s)
		req.Status = &st
	}

	project, err := env.CLI.App.ProjectService.UpdateProject(ctx, req)
	if err != nil {
		return err
	}

	return env.Success("project", project, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Project '%s' updated\n", project.Name)
	})
}
