package history

import (
	"context"
	"time"

	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

// recordTimeout bounds the insert so a stalled database cannot hold up the
// component run that produced the event.
const recordTimeout = 5 * time.Second

// Logger is the minimal logging interface the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder returns a lifecycle observer that persists every settled
// invocation as a run event. Persistence failures are logged and dropped;
// history is diagnostics, not a ledger.
func Recorder(repo Repository, logger Logger) lifecycle.Observer {
	return func(e lifecycle.Event) {
		event := &RunEvent{
			RunID:      e.RunID,
			Component:  e.Component,
			Kind:       string(e.Kind),
			Scope:      e.Scope.String(),
			DurationMs: e.Duration.Milliseconds(),
			Outcome:    "ok",
		}
		if e.Err != nil {
			event.Outcome = "error"
			event.Error = e.Err.Error()
		}

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := repo.Create(ctx, event); err != nil && logger != nil {
			logger.Warn("failed to record run event",
				"component", e.Component,
				"error", err)
		}
	}
}
