package lifecycle

import (
	"context"
	"time"
)

// Scope narrows what a callback should act on. The zero value targets the
// whole portal; a Region names a single content region after a partial
// refresh (for example "standings" or "match-report").
type Scope struct {
	Region string
}

// ScopeRoot targets the entire portal.
var ScopeRoot = Scope{}

// IsRoot reports whether the scope covers the whole portal.
func (s Scope) IsRoot() bool {
	return s.Region == ""
}

// String returns a loggable form of the scope.
func (s Scope) String() string {
	if s.IsRoot() {
		return "root"
	}
	return s.Region
}

// Callback is a component's setup function. It receives the scope it should
// initialise against and reports failure via its error return. Callbacks may
// spawn background work, but the registry only guarantees start order, never
// completion order.
type Callback func(ctx context.Context, scope Scope) error

// Options carries the registration parameters beyond name and callback.
type Options struct {
	// Priority orders the initial run, higher first. Components with equal
	// priority run in registration order. Zero is a valid priority.
	Priority int

	// Reinitializable marks the callback as safe to replay on content
	// refresh. One-shot components leave this false and are skipped by
	// Reinit without error.
	Reinitializable bool

	// Description is a short human-readable summary surfaced in status
	// output and failure logs.
	Description string
}

// Phase identifies the registry's position in the bootstrap sequence.
type Phase string

const (
	// PhaseCollecting is the initial phase: registrations are deferred.
	PhaseCollecting Phase = "collecting"

	// PhaseRunning is entered by Run and never exited. Registrations
	// arriving in this phase are invoked immediately.
	PhaseRunning Phase = "running"
)

// EventKind distinguishes the pass that produced a lifecycle event.
type EventKind string

const (
	EventInit   EventKind = "init"
	EventReinit EventKind = "reinit"
)

// Event describes one settled callback invocation. Events are delivered
// synchronously to registered observers after the callback returns or
// panics.
type Event struct {
	RunID     string
	Component string
	Kind      EventKind
	Scope     Scope
	Duration  time.Duration
	Err       error
}

// Observer receives lifecycle events. Observers must be fast; a slow
// observer delays the components that follow.
type Observer func(Event)

// ComponentStatus is a read-only snapshot of one registration, ordered the
// same way the initial run is.
type ComponentStatus struct {
	Name            string     `json:"name"`
	Priority        int        `json:"priority"`
	Reinitializable bool       `json:"reinitializable"`
	Description     string     `json:"description,omitempty"`
	Initialized     bool       `json:"initialized"`
	RunCount        int        `json:"run_count"`
	LastError       string     `json:"last_error,omitempty"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
}

// registration is the registry's internal record for one component.
type registration struct {
	name            string
	callback        Callback
	priority        int
	seq             int
	reinitializable bool
	description     string

	initialized bool
	runCount    int
	lastError   string
	lastRunAt   time.Time
}

func (r *registration) status() ComponentStatus {
	s := ComponentStatus{
		Name:            r.name,
		Priority:        r.priority,
		Reinitializable: r.reinitializable,
		Description:     r.description,
		Initialized:     r.initialized,
		RunCount:        r.runCount,
		LastError:       r.lastError,
	}
	if !r.lastRunAt.IsZero() {
		t := r.lastRunAt
		s.LastRunAt = &t
	}
	return s
}

// Logger is the minimal logging interface the registry needs. It matches
// the application's structured logger so callers can pass it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}
