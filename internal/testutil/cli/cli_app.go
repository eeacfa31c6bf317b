package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/app"
	clipkg "github.com/furkanakkurt/taskmanager/internal/cli"
)

// Result is the captured outcome of one command run
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// ExitCode is the code the process would have exited with
func (r Result) ExitCode() int {
	return clipkg.ExitCodeFor(r.Err)
}

// ExecuteCLICommand executes a CLI command with a test app instance
// This properly injects the app context so commands can access the test database
func ExecuteCLICommand(t *testing.T, testApp *app.App, cmd *cobra.Command, args []string) Result {
	t.Helper()
	return ExecuteCLICommandContext(t, context.Background(), testApp, cmd, args, nil)
}

// ExecuteCLICommandWithInput is ExecuteCLICommand with stdin
func ExecuteCLICommandWithInput(t *testing.T, testApp *app.App, cmd *cobra.Command, args []string, stdin io.Reader) Result {
	t.Helper()
	return ExecuteCLICommandContext(t, context.Background(), testApp, cmd, args, stdin)
}

// ExecuteCLICommandContext runs cmd under ctx, for commands that block
// until cancelled
func ExecuteCLICommandContext(t *testing.T, ctx context.Context, testApp *app.App, cmd *cobra.Command, args []string, stdin io.Reader) Result {
	t.Helper()

	if testApp == nil {
		t.Fatal("testApp cannot be nil - SetupCLITest must be called first")
	}

	ctx = clipkg.WithApp(ctx, testApp)

	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}

	// Disable usage output on error for cleaner test output
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}
