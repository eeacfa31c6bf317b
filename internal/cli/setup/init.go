package setup

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/config"
	"github.com/furkanakkurt/taskmanager/internal/user"
)

// InitCmd returns the config init subcommand
func InitCmd() *cobra.Command {
	var (
		userFlag      string
		forceFlag     bool
		transportFlag string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long: `Write a configuration file with the acting user and the current defaults.
Without --user the owner is TASKMANAGER_USER_ID or the OS account name.
A storage signing key is generated so signed URLs survive restarts.

Examples:
  # Create ~/.config/taskmanager/config.yaml for user alice
  taskmanager config init --user=alice

  # Overwrite an existing file and disable live updates
  taskmanager config init --user=alice --transport=none --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.ConfigPath(cmd.Context())
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			formatter := cli.FormatterFor(cmd)
			formatter.Out = cmd.OutOrStdout()
			formatter.Err = cmd.ErrOrStderr()

			if _, err := os.Stat(path); err == nil && !forceFlag {
				return formatter.Usage(fmt.Errorf("config file %s already exists", path), "Pass --force to overwrite it")
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return formatter.Fail(err)
			}

			cfg, err := config.Load(path)
			if err != nil {
				return formatter.Fail(err)
			}
			if u := strings.TrimSpace(userFlag); u != "" {
				cfg.UserID = u
			}
			if cfg.UserID == "" {
				cfg.UserID = user.CurrentUsername()
			}
			if cfg.UserID == "" {
				return formatter.Usage(cli.ErrNoOwner, "Pass --user <id>")
			}
			if transportFlag != "" {
				cfg.Events.Transport = transportFlag
			}
			if cfg.Storage.SigningKey == "" {
				if cfg.Storage.SigningKey, err = randomKey(); err != nil {
					return formatter.Fail(err)
				}
			}
			if err := cfg.Validate(); err != nil {
				return formatter.Fail(err)
			}
			if err := cfg.Save(path); err != nil {
				return formatter.Fail(err)
			}

			return formatter.Success("config", map[string]string{"path": path, "user_id": cfg.UserID}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Wrote %s for user %s\n", path, cfg.UserID)
			})
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "Acting user ID (defaults to TASKMANAGER_USER_ID, then the OS account name)")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing file")
	cmd.Flags().StringVar(&transportFlag, "transport", "", "Event transport: socket, nats, local or none")
	cmd.Flags().Bool("json", false, "Output in JSON format")

	return cmd
}

func randomKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate signing key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
