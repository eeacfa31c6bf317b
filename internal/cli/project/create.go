package project

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/models"
	projectservice "github.com/furkanakkurt/taskmanager/internal/services/project"
)

// CreateCmd returns the project create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		Long: `Create a new project.

Examples:
  # Simple project
  taskmanager project create --name="Launch"

  # With description and status
  taskmanager project create --name="Launch" --description="Q3 launch" --status=on_hold

  # Quiet mode for bash capture
  PROJECT_ID=$(taskmanager project create --name="Launch" --quiet)
`,
		RunE: handler.Command(runCreate),
	}

	// Required flags
	cmd.Flags().String("name", "", "Project name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		log.Printf("Error marking flag as required: %v", err)
	}

	// Optional flags
	cmd.Flags().String("description", "", "Project description (use - for stdin)")
	cmd.Flags().String("status", "", "Status: active, completed, on_hold, cancelled (default active)")

	// Agent-friendly flags
	cli.AddAgentFlags(cmd)

	return cmd
}

func runCreate(ctx context.Context, env *handler.Env) error {
	description, err := cli.ReadDescription(env.Flags.String("description"), env.Cmd.InOrStdin())
	if err != nil {
		return &cli.ExitCodeError{Code: cli.ExitDataErr, Err: err}
	}

	project, err := env.CLI.App.ProjectService.CreateProject(ctx, projectservice.CreateProjectRequest{
		OwnerID:     env.Owner,
		Name:        env.Flags.String("name"),
		Description: description,
		Status:      models.ProjectStatus(env.Flags.String("status")),
	})
	if err != nil {
		return err
	}

	return env.Success("project", project, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Project '%s' created successfully (ID: %s)\n", project.Name, project.ID)
		fmt.Fprintf(w, "  Status: %s\n", project.Status)
	})
}
