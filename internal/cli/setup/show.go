package setup

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/config"
)

const masked = "********"

// ShowCmd returns the config show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after file, .env and environment overrides. Secrets are masked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := cli.FormatterFor(cmd)
			formatter.Out = cmd.OutOrStdout()
			formatter.Err = cmd.ErrOrStderr()

			cfg, err := config.Load(cli.ConfigPath(cmd.Context()))
			if err != nil {
				return formatter.Fail(err)
			}
			shown := redact(*cfg)

			return formatter.Success("config", shown, func(w io.Writer) {
				data, err := yaml.Marshal(shown)
				if err != nil {
					fmt.Fprintf(w, "failed to encode config: %v\n", err)
					return
				}
				_, _ = w.Write(data)
			})
		},
	}

	cmd.Flags().Bool("json", false, "Output in JSON format")

	return cmd
}

// redact hides secrets; cfg is a copy
func redact(cfg config.Config) config.Config {
	if cfg.Storage.SigningKey != "" {
		cfg.Storage.SigningKey = masked
	}
	if cfg.Storage.Minio.SecretKey != "" {
		cfg.Storage.Minio.SecretKey = masked
	}
	if cfg.HTTP.JWTSecret != "" {
		cfg.HTTP.JWTSecret = masked
	}
	if u, err := url.Parse(cfg.Database.DSN); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), masked)
			cfg.Database.DSN = u.String()
		}
	}
	return cfg
}
