// Package serve runs the long-lived processes: the HTTP API and the event
// daemon
package serve

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/app"
	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/httpapi"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the JSON API, the change stream and signed file downloads, and run
the orphaned blob sweeper in the background.

Requests are authenticated with HS256 bearer tokens whose sub claim is the
acting user; set http.jwt_secret or TASKMANAGER_JWT_SECRET.

Examples:
  taskmanager serve
  taskmanager serve --address=127.0.0.1:9000 --no-sweeper
`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Listen address (defaults to http.address)")
	cmd.Flags().Bool("no-sweeper", false, "Do not run the blob sweeper")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	formatter.Out = cmd.OutOrStdout()
	formatter.Err = cmd.ErrOrStderr()

	c, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		_ = formatter.Error("INITIALIZATION_ERROR", err.Error())
		return &cli.ExitCodeError{Code: cli.ExitError, Err: err}
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Error("Error closing CLI", "error", err)
		}
	}()

	httpCfg := httpapi.Config{
		Address:        c.Config.HTTP.Address,
		JWTSecret:      c.Config.HTTP.JWTSecret,
		ReadTimeout:    c.Config.HTTP.ReadTimeout,
		WriteTimeout:   c.Config.HTTP.WriteTimeout,
		MaxUploadBytes: c.Config.Storage.MaxUploadBytes,
	}
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		httpCfg.Address = addr
	}

	srv, err := httpapi.NewServer(httpCfg, Deps(c.App), slog.Default())
	if err != nil {
		return formatter.Fail(err)
	}

	noSweeper, _ := cmd.Flags().GetBool("no-sweeper")
	if !noSweeper && !c.Config.Sweeper.Disabled {
		if err := c.App.Sweeper.Start(ctx); err != nil {
			return formatter.Fail(fmt.Errorf("failed to start sweeper: %w", err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s (live updates: %t)\n", httpCfg.Address, c.App.Live())
	if err := srv.Run(ctx); err != nil {
		return formatter.Fail(err)
	}
	return nil
}

// Deps exposes the services of a to the HTTP API. Signed downloads are only
// served when the blob store can verify its own URLs.
func Deps(a *app.App) httpapi.Deps {
	deps := httpapi.Deps{
		Tasks:       a.TaskService,
		Projects:    a.ProjectService,
		Categories:  a.CategoryService,
		Attachments: a.AttachmentService,
		Subscriber:  a.Subscriber(),
	}
	if files, ok := a.Store().(httpapi.FileStore); ok {
		deps.Files = files
	}
	return deps
}
