package action

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

// Kind names a dispatchable action.
type Kind string

const (
	// KindReinit replays the named components against a scope.
	KindReinit Kind = "reinit"

	// KindReinitAll replays every reinitializable component.
	KindReinitAll Kind = "reinit-all"

	// KindStatus requests a component status report.
	KindStatus Kind = "status"
)

var (
	// ErrUnknownAction indicates a dispatch for a kind with no handler.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidHandler indicates a registration with an empty kind or nil
	// handler.
	ErrInvalidHandler = errors.New("invalid handler")

	// ErrDuplicateHandler indicates a kind that already has a handler.
	ErrDuplicateHandler = errors.New("duplicate handler")
)

// Request carries the parameters of one action.
type Request struct {
	Kind       Kind
	Components []string
	Scope      lifecycle.Scope

	// Source identifies the trigger origin for logging, for example
	// "mqtt" or "api".
	Source string
}

// Handler executes one action kind.
type Handler func(ctx context.Context, req Request) error

// Dispatcher routes requests to registered handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler
	logger   Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind]Handler),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger used for dispatch reporting.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// Register binds a handler to an action kind. Binding happens at startup,
// so an invalid or duplicate registration is a programming error and is
// returned rather than logged.
func (d *Dispatcher) Register(kind Kind, handler Handler) error {
	if kind == "" {
		return fmt.Errorf("%w: empty kind", ErrInvalidHandler)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrInvalidHandler, kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHandler, kind)
	}
	d.handlers[kind] = handler
	return nil
}

// Dispatch resolves and runs the handler for the request's kind.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	d.mu.RLock()
	handler, exists := d.handlers[req.Kind]
	logger := d.logger
	d.mu.RUnlock()

	if !exists {
		logger.Warn("dispatch for unknown action",
			"action", string(req.Kind),
			"source", req.Source)
		return fmt.Errorf("%w: %q", ErrUnknownAction, req.Kind)
	}

	logger.Debug("dispatching action",
		"action", string(req.Kind),
		"components", len(req.Components),
		"scope", req.Scope.String(),
		"source", req.Source)

	if err := handler(ctx, req); err != nil {
		return fmt.Errorf("action %q failed: %w", req.Kind, err)
	}
	return nil
}

// Kinds returns the registered action kinds.
func (d *Dispatcher) Kinds() []Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kinds := make([]Kind, 0, len(d.handlers))
	for kind := range d.handlers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Logger is the minimal logging interface the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any)  {}
