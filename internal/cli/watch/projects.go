package watch

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/livesync"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// ProjectsCmd returns the watch projects subcommand
func ProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Watch project changes",
		RunE:  handler.Command(runProjects),
	}

	addWatchFlags(cmd)

	return cmd
}

func runProjects(ctx context.Context, env *handler.Env) error {
	initial, err := env.CLI.App.ProjectService.ListProjects(ctx, env.Owner)
	if err != nil {
		return err
	}

	target := events.Subscription{Table: models.TableProjects, OwnerID: env.Owner}
	return stream(ctx, env, target, livesync.NewCollection(initial), nil, livesync.ProjectNotification)
}
