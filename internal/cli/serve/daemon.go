package serve

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/daemon"
)

// DaemonCmd returns the daemon command
func DaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the local change relay",
		Long: `Run the unix socket relay that fans committed changes out to every
subscribed taskmanager process on this machine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := cli.FormatterFor(cmd)
			formatter.Out = cmd.OutOrStdout()
			formatter.Err = cmd.ErrOrStderr()

			cfg, err := config.Load(cli.ConfigPath(cmd.Context()))
			if err != nil {
				return formatter.Fail(err)
			}

			socket, _ := cmd.Flags().GetString("socket")
			if socket == "" {
				socket = cfg.Events.SocketPath
			}
			return RunDaemon(cmd, socket)
		},
	}

	cmd.Flags().String("socket", "", "Socket path (defaults to events.socket_path)")

	return cmd
}

// RunDaemon serves the relay on socket until the command context is done
func RunDaemon(cmd *cobra.Command, socket string) error {
	server, err := daemon.NewServer(socket, daemon.WithLogger(slog.Default()))
	if err != nil {
		return cli.FormatterFor(cmd).Fail(err)
	}

	slog.Info("taskmanager daemon starting", "socket_path", socket, "pid", os.Getpid())
	if err := server.Start(cmd.Context()); err != nil {
		return cli.FormatterFor(cmd).Fail(err)
	}
	slog.Info("taskmanager daemon shut down")
	return nil
}
