package category

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
	categoryservice "github.com/furkanakkurt/taskmanager/internal/services/category"
)

// CreateCmd returns the category create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new category",
		Long: `Create a new category with a display color.

Examples:
  taskmanager category create --name="Work"
  taskmanager category create --name="Home" --color="#10B981"
`,
		RunE: handler.Command(runCreate),
	}

	cmd.Flags().String("name", "", "Category name (required)")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		log.Printf("Error marking flag as required: %v", err)
	}
	cmd.Flags().String("color", "", "Hex color #RRGGBB (default #6B7280)")

	cli.AddAgentFlags(cmd)

	return cmd
}

func runCreate(ctx context.Context, env *handler.Env) error {
	category, err := env.CLI.App.CategoryService.CreateCategory(ctx, categoryservice.CreateCategoryRequest{
		OwnerID: env.Owner,
		Name:    env.Flags.String("name"),
		Color:   env.Flags.String("color"),
	})
	if err != nil {
		return err
	}

	return env.Success("category", category, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Category %s created successfully (ID: %s)\n", styles.RenderCategoryChip(category), category.ID)
	})
}
