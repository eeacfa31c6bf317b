// Package handler provides command execution abstraction to reduce boilerplate
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
)

// Env is what a command body gets: the CLI, the acting owner, the output
// formatter and flag access
type Env struct {
	CLI       *cli.CLI
	Owner     string
	Formatter *cli.OutputFormatter
	Flags     *FlagParser
	Args      []string
	Cmd       *cobra.Command
}

// Success prints data under key, or human when neither --json nor --quiet
// is set
func (e *Env) Success(key string, data any, human func(w io.Writer)) error {
	return e.Formatter.Success(key, data, human)
}

// RunFunc is a command body. Returned errors are printed and mapped to an
// exit code by Command.
type RunFunc func(ctx context.Context, env *Env) error

// Command wraps common command execution logic
// Returns a cobra RunE compatible function
func Command(run RunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		formatter := cli.FormatterFor(cmd)
		formatter.Out = cmd.OutOrStdout()
		formatter.Err = cmd.ErrOrStderr()

		cliInstance, err := cli.GetCLIFromContext(ctx)
		if err != nil {
			_ = formatter.Error("INITIALIZATION_ERROR", err.Error())
			return &cli.ExitCodeError{Code: cli.ExitError, Err: err}
		}
		defer func() {
			if err := cliInstance.Close(); err != nil {
				slog.Error("Error closing CLI", "error", err)
			}
		}()

		owner, err := cli.OwnerID(cmd, cliInstance)
		if err != nil {
			return formatter.Usage(err, cli.OwnerSuggestion)
		}

		env := &Env{
			CLI:       cliInstance,
			Owner:     owner,
			Formatter: formatter,
			Flags:     NewFlagParser(cmd),
			Args:      args,
			Cmd:       cmd,
		}

		if err := run(ctx, env); err != nil {
			var exitErr *cli.ExitCodeError
			if errors.As(err, &exitErr) {
				return err
			}
			return formatter.Fail(err)
		}
		return nil
	}
}
