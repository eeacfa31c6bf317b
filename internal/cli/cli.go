package cli

import (
	"context"
	"fmt"

	"github.com/furkanakkurt/taskmanager/internal/app"
	"github.com/furkanakkurt/taskmanager/internal/config"
)

// CLI represents the CLI application context
type CLI struct {
	App    *app.App // Application container with services
	Config *config.Config
	ctx    context.Context
	owned  bool
}

// NewCLI loads the configuration at configPath and builds the application.
// The daemon connection is optional; without it writes still succeed.
func NewCLI(ctx context.Context, configPath string) (*CLI, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}

	return &CLI{
		App:    application,
		Config: cfg,
		ctx:    ctx,
		owned:  true,
	}, nil
}

// Close cleans up CLI resources. An app injected through the context is
// left for its creator to close.
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	return c.App.Close()
}
