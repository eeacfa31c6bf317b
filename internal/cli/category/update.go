package category

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	categoryservice "github.com/furkanakkurt/taskmanager/internal/services/category"
)

// UpdateCmd returns the category update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a category",
		Args:  cobra.ExactArgs(1),
		RunE:  handler.Command(runUpdate),
	}

	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("color", "", "New hex color #RRGGBB")

	cli.AddAgentFlags(cmd)

	return cmd
}

func runUpdate(ctx context.Context, env *handler.Env) error {
	category, err := env.CLI.App.CategoryService.UpdateCategory(ctx, categoryservice.UpdateCategoryRequest{
		ID:      env.Args[0],
		OwnerID: env.Owner,
		Name:    env.Flags.OptionalString("name"),
		Color:   env.Flags.OptionalString("color"),
	})
	if err != nil {
		return err
	}

	return env.Success("category", category, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Category '%s' updated\n", category.Name)
	})
}
