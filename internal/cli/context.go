package cli

import (
	"context"

	"github.com/furkanakkurt/taskmanager/internal/app"
)

type contextKey int

const (
	appKey contextKey = iota
	configPathKey
)

// WithApp makes GetCLIFromContext reuse application instead of building one
func WithApp(ctx context.Context, application *app.App) context.Context {
	return context.WithValue(ctx, appKey, application)
}

// WithConfigPath records the --config flag for GetCLIFromContext
func WithConfigPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, configPathKey, path)
}

// ConfigPath returns the path recorded by WithConfigPath, or "" for the
// default location
func ConfigPath(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	path, _ := ctx.Value(configPathKey).(string)
	return path
}

// GetCLIFromContext returns a CLI for the command context. Tests inject an
// App with WithApp; otherwise the configuration is loaded and a new App
// built.
func GetCLIFromContext(ctx context.Context) (*CLI, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if application, ok := ctx.Value(appKey).(*app.App); ok && application != nil {
		return &CLI{App: application, Config: application.Config(), ctx: ctx}, nil
	}

	return NewCLI(ctx, ConfigPath(ctx))
}
