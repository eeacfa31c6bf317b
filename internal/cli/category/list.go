package category

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
)

// ListCmd returns the category list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE:  handler.Command(runList),
	}

	cli.AddAgentFlags(cmd)

	return cmd
}

func runList(ctx context.Context, env *handler.Env) error {
	categories, err := env.CLI.App.CategoryService.ListCategories(ctx, env.Owner)
	if err != nil {
		return err
	}

	return env.Success("categories", categories, func(w io.Writer) {
		if len(categories) == 0 {
			fmt.Fprintln(w, "No categories found")
			return
		}
		fmt.Fprintf(w, "Found %d categories:\n\n", len(categories))
		for _, c := range categories {
			fmt.Fprintf(w, "  [%s] %s %s\n", c.ID, styles.RenderCategoryChip(c), c.Color)
		}
	})
}
