package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ErrNoOwner is returned when neither --user nor config user_id is set
var ErrNoOwner = errors.New("no user configured")

// DateLayout is the accepted --due format
const DateLayout = "2006-01-02"

// AddAgentFlags adds the flags every command carries
func AddAgentFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output in JSON format")
	cmd.Flags().Bool("quiet", false, "Minimal output (ID only)")
	cmd.Flags().String("user", "", "Act as this user (defaults to user_id from the config)")
}

// FormatterFor builds the formatter selected by --json and --quiet
func FormatterFor(cmd *cobra.Command) *OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return &OutputFormatter{JSON: jsonOutput, Quiet: quietMode}
}

// OwnerID resolves the acting user from --user, then TASKMANAGER_USER_ID
// or user_id from the config
func OwnerID(cmd *cobra.Command, c *CLI) (string, error) {
	if user, _ := cmd.Flags().GetString("user"); strings.TrimSpace(user) != "" {
		return strings.TrimSpace(user), nil
	}
	if c != nil && c.Config != nil && strings.TrimSpace(c.Config.UserID) != "" {
		return strings.TrimSpace(c.Config.UserID), nil
	}
	return "", ErrNoOwner
}

// OwnerSuggestion tells the user how to configure an owner
const OwnerSuggestion = "Pass --user, set TASKMANAGER_USER_ID, or run 'taskmanager config init --user <id>'"

// ReadDescription returns value, reading stdin when value is "-"
func ReadDescription(value string, stdin io.Reader) (string, error) {
	if value != "-" {
		return value, nil
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read description from stdin: %w", err)
	}
	return string(data), nil
}

// ParseDate parses a YYYY-MM-DD or RFC 3339 date
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", value)
	}
	return t.UTC(), nil
}

// FormatDate renders an optional date for human output
func FormatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(DateLayout)
}

// FormatSize renders a byte count with a binary unit
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
