package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/attachment"
	"github.com/furkanakkurt/taskmanager/internal/cli/category"
	"github.com/furkanakkurt/taskmanager/internal/cli/project"
	"github.com/furkanakkurt/taskmanager/internal/cli/serve"
	"github.com/furkanakkurt/taskmanager/internal/cli/setup"
	"github.com/furkanakkurt/taskmanager/internal/cli/task"
	"github.com/furkanakkurt/taskmanager/internal/cli/watch"
	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/logging"
)

var (
	configPath string
	logCloser  io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "taskmanager",
	Short: "taskmanager - tasks, projects and attachments with live sync",
	Long: `taskmanager manages your tasks, projects, categories and file attachments.

Changes made by one process are pushed to every other watcher through the
local daemon or NATS, and the same data is served over HTTP by 'serve'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/taskmanager/config.yaml)")

	rootCmd.AddCommand(task.TaskCmd())
	rootCmd.AddCommand(project.ProjectCmd())
	rootCmd.AddCommand(category.CategoryCmd())
	rootCmd.AddCommand(attachment.AttachmentCmd())
	rootCmd.AddCommand(watch.WatchCmd())
	rootCmd.AddCommand(serve.ServeCmd())
	rootCmd.AddCommand(serve.DaemonCmd())
	rootCmd.AddCommand(setup.ConfigCmd())
}

// setupLogging records --config for the subcommand and routes slog to the
// configured sink. A config that fails to load is reported by the command
// itself, so logging then stays on stderr.
func setupLogging(cmd *cobra.Command, args []string) error {
	cmd.SetContext(cli.WithConfigPath(cmd.Context(), configPath))

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil
	}
	closer, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return nil
	}
	logCloser = closer
	return nil
}

// Execute runs the root command until it returns or the process is
// interrupted. The returned error maps to the exit code with cli.ExitCodeFor.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		if cerr := logCloser.Close(); cerr != nil {
			slog.Error("failed to close log file", "error", cerr)
		}
	}

	// Commands print their own failures. Anything else comes from cobra
	// itself: unknown commands, bad flags, missing arguments.
	var exitErr *cli.ExitCodeError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun 'taskmanager --help' for usage.\n", err)
		return &cli.ExitCodeError{Code: cli.ExitUsage, Err: err}
	}
	return err
}
