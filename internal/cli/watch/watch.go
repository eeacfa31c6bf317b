// Package watch streams live changes to the terminal
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/furkanakkurt/taskmanager/internal/cli"
	"github.com/furkanakkurt/taskmanager/internal/cli/handler"
	"github.com/furkanakkurt/taskmanager/internal/cli/styles"
	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/livesync"
)

// ErrLiveDisabled is returned when no change transport is available
var ErrLiveDisabled = errors.New("live updates are unavailable (set events.transport or start 'taskmanager daemon')")

// WatchCmd returns the watch parent command
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print changes as they happen",
		Long: `Subscribe to your tasks or projects and print every change pushed by the
event transport until interrupted.

Examples:
  taskmanager watch tasks
  taskmanager watch tasks --project=<project-id> --json
  taskmanager watch projects --count=1
`,
	}

	cmd.AddCommand(TasksCmd())
	cmd.AddCommand(ProjectsCmd())

	return cmd
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("count", 0, "Exit after this many changes (0 watches until interrupted)")
	cli.AddAgentFlags(cmd)
}

// line is one printed change
type line struct {
	Kind         string                `json:"kind"`
	ID           string                `json:"id"`
	Notification livesync.Notification `json:"notification"`
	Row          any                   `json:"row"`
	Total        int                   `json:"total"`
}

// stream subscribes target into coll and prints one line per applied change
// until ctx is done, the stream ends or count lines were printed. With keep
// set only the entries it accepts are shown, and a change is printed when the
// row was shown before or after it. The subscription callback only queues
// lines; printing happens here.
func stream[T livesync.Entity](
	ctx context.Context,
	env *handler.Env,
	target events.Subscription,
	coll *livesync.Collection[T],
	keep func(T) bool,
	notify func(livesync.Event[T], time.Time) livesync.Notification,
) error {
	sub := env.CLI.App.Subscriber()
	if sub == nil {
		_ = env.Formatter.Error("LIVE_DISABLED", ErrLiveDisabled.Error())
		return &cli.ExitCodeError{Code: cli.ExitError, Err: ErrLiveDisabled}
	}

	ctx, cancel := context.WithCancel(ctx)

	count, _ := env.Cmd.Flags().GetInt("count")
	lines := make(chan line, 64)
	shown := visible(coll, keep)
	loaded := len(shown)

	handle, err := livesync.Watch(ctx, sub, target, coll, livesync.OnEvent(func(ev livesync.Event[T]) {
		row := ev.New
		if ev.Kind == livesync.Delete {
			row = ev.Old
		}
		id := ev.ID
		if id == "" {
			id = row.EntityID()
		}

		before := shown[id]
		shown = visible(coll, keep)
		if !before && !shown[id] {
			return
		}

		l := line{
			Kind:         ev.Kind.String(),
			ID:           id,
			Notification: notify(ev, time.Now()),
			Row:          row,
			Total:        len(shown),
		}
		select {
		case lines <- l:
		case <-ctx.Done():
		}
	}))
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to %s: %w", target.Table, err)
	}
	// cancel first so a callback blocked on lines returns before Close waits
	defer func() {
		cancel()
		_ = handle.Close()
	}()

	if !env.Formatter.JSON && !env.Formatter.Quiet {
		fmt.Fprintf(env.Formatter.Out, "Watching %s (%d loaded). Press Ctrl+C to stop.\n", target.Table, loaded)
	}

	printed := 0
	emit := func(l line) bool {
		printLine(env.Formatter, l)
		printed++
		return count > 0 && printed >= count
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-handle.Done():
			// The callback has returned for good; print what it queued
			for {
				select {
				case l := <-lines:
					if emit(l) {
						return nil
					}
				default:
					return nil
				}
			}
		case l := <-lines:
			if emit(l) {
				return nil
			}
		}
	}
}

// visible returns the ids of the entries keep accepts, or of every entry
// when keep is nil
func visible[T livesync.Entity](coll *livesync.Collection[T], keep func(T) bool) map[string]bool {
	items := coll.Items()
	if keep != nil {
		items = coll.Filtered(keep)
	}
	ids := make(map[string]bool, len(items))
	for _, item := range items {
		ids[item.EntityID()] = true
	}
	return ids
}

func printLine(f *cli.OutputFormatter, l line) {
	switch {
	case f.Quiet:
		fmt.Fprintln(f.Out, l.ID)
	case f.JSON:
		data, err := json.Marshal(l)
		if err != nil {
			fmt.Fprintf(f.Out, "{\"kind\":%q,\"id\":%q}\n", l.Kind, l.ID)
			return
		}
		fmt.Fprintln(f.Out, string(data))
	default:
		fmt.Fprintf(f.Out, "%s %s %s\n",
			styles.LabelStyle.Render(l.Notification.Timestamp.Format("15:04:05")),
			renderSeverity(l.Notification),
			styles.LabelStyle.Render(fmt.Sprintf("(%d total)", l.Total)))
	}
}

func renderSeverity(n livesync.Notification) string {
	switch n.Severity {
	case livesync.SeverityWarning:
		return styles.WarningStyle.Render(n.Message)
	case livesync.SeveritySuccess:
		return styles.SuccessStyle.Render(n.Message)
	default:
		return styles.ValueStyle.Render(n.Message)
	}
}
