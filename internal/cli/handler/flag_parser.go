// Package handler provides flag parsing utilities
package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

// FlagParser provides common flag extraction patterns. Optional getters
// return nil when the flag was not given, so updates can tell "unset" from
// "set to empty".
type FlagParser struct {
	cmd *cobra.Command
}

// NewFlagParser creates a new flag parser
func NewFlagParser(cmd *cobra.Command) *FlagParser {
	return &FlagParser{cmd: cmd}
}

// Changed reports whether the flag was given on the command line
func (p *FlagParser) Changed(name string) bool {
	return p.cmd.Flags().Changed(name)
}

// String returns the flag value trimmed
func (p *FlagParser) String(name string) string {
	v, _ := p.cmd.Flags().GetString(name)
	return strings.TrimSpace(v)
}

// OptionalString returns the flag value, or nil when not given
func (p *FlagParser) OptionalString(name string) *string {
	if !p.Changed(name) {
		return nil
	}
	v, _ := p.cmd.Flags().GetString(name)
	return &v
}

// OptionalDate parses a date flag, or returns nil when not given
func (p *FlagParser) OptionalDate(name string) (*time.Time, error) {
	if !p.Changed(name) {
		return nil, nil
	}
	t, err := cli.ParseDate(p.String(name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

// OptionalStatus returns the --status value as a TaskStatus. Validation is
// left to the service so errors carry the validation kind.
func (p *FlagParser) OptionalStatus(name string) *models.TaskStatus {
	v := p.OptionalString(name)
	if v == nil {
		return nil
	}
	st := models.TaskStatus(strings.TrimSpace(*v))
	return &st
}

// OptionalPriority returns the --priority value as a TaskPriority
func (p *FlagParser) OptionalPriority(name string) *models.TaskPriority {
	v := p.OptionalString(name)
	if v == nil {
		return nil
	}
	pr := models.TaskPriority(strings.TrimSpace(*v))
	return &pr
}

// RequiredArg returns args[0] or an error naming what is missing
func RequiredArg(args []string, what string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("%s is required", what)
	}
	return strings.TrimSpace(args[0]), nil
}
