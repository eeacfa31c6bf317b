package watch

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/livesync"
	"github.com/furkanakkurt/taskmanager/internal/models"
	taskservice "github.com/furkanakkurt/taskmanager/internal/services/task"
)

// TasksCmd returns the watch tasks subcommand
func TasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Watch task changes",
		RunE:  handler.Command(runTasks),
	}

	cmd.Flags().String("project", "", "Only changes to tasks of this project")
	cmd.Flags().String("category", "", "Only changes to tasks of this category")
	cmd.Flags().String("status", "", "Only changes to tasks with this status")
	cmd.MarkFlagsMutuallyExclusive("project", "category", "status")
	addWatchFlags(cmd)

	return cmd
}

// runTasks holds every task of the owner and prints the filtered view. A
// task moving into or out of the filter arrives as an update of a held row,
// which a filtered subscription would never deliver.
func runTasks(ctx context.Context, env *handler.Env) error {
	target := events.Subscription{Table: models.TableTasks, OwnerID: env.Owner}
	project := env.Flags.String("project")
	category := env.Flags.String("category")
	status := models.TaskStatus(env.Flags.String("status"))

	if status != "" && !status.Valid() {
		return apperr.Validationf("invalid status %q", status)
	}

	var keep func(models.Task) bool
	switch {
	case project != "":
		keep = func(t models.Task) bool { return t.ProjectID != nil && *t.ProjectID == project }
	case category != "":
		keep = func(t models.Task) bool { return t.CategoryID != nil && *t.CategoryID == category }
	case status != "":
		keep = func(t models.Task) bool { return t.Status == status }
	}

	initial, err := env.CLI.App.TaskService.ListTasks(ctx, env.Owner, taskservice.ListFilter{})
	if err != nil {
		return err
	}

	return stream(ctx, env, target, livesync.NewCollection(initial), keep, livesync.TaskNotification)
}
