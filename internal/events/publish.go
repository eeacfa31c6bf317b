package events

import (
	"context"
	"log/slog"
	"time"
)

// PublishWithRetry attempts to publish a change with retry logic.
// It makes up to maxRetries attempts with exponential backoff.
// Returns the error from the final attempt if all retries fail.
//
// The row change is already committed when this runs, so callers log the
// failure and carry on: subscribers miss the live update but the data is safe.
func PublishWithRetry(ctx context.Context, p Publisher, change Change, maxRetries int) error {
	if p == nil {
		return nil
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	baseDelay := 50 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := p.Publish(ctx, change)
		if err == nil {
			if attempt > 0 {
				slog.Debug("change published after retry",
					"attempt", attempt+1,
					"table", change.Table,
					"kind", change.Kind)
			}
			return nil
		}

		lastErr = err

		if attempt < maxRetries-1 {
			// 50ms, 100ms, 200ms, ...
			delay := baseDelay * (1 << attempt)
			slog.Debug("change publish failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"retry_delay", delay,
				"error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	slog.Warn("change publish failed after all retries",
		"attempts", maxRetries,
		"table", change.Table,
		"kind", change.Kind,
		"owner_id", change.OwnerID,
		"error", lastErr)

	return lastErr
}
