package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// All is the sentinel component name accepted by Reinit to mean every
// reinitializable component.
const All = "all"

// Registry coordinates component initialisation. Construct with NewRegistry
// and share one instance per application; there is deliberately no package
// level singleton so tests and embedding callers get isolated registries.
type Registry struct {
	mu         sync.Mutex
	logger     Logger
	phase      Phase
	seq        int
	components map[string]*registration
	observers  []Observer
}

// NewRegistry creates an empty registry in the collecting phase.
func NewRegistry() *Registry {
	return &Registry{
		logger:     noopLogger{},
		phase:      PhaseCollecting,
		components: make(map[string]*registration),
	}
}

// SetLogger sets the logger used for lifecycle reporting.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// AddObserver registers an observer for settled callback invocations.
// Observers added after Run only see subsequent invocations.
func (r *Registry) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
}

// Register records a component's setup callback.
//
// During the collecting phase the callback is deferred until Run. Once the
// registry is running, the callback is invoked immediately against the root
// scope before Register returns, so modules that come up late still
// initialise without the caller doing anything extra.
//
// Parameters:
//   - name: unique component name
//   - cb: setup callback, must not be nil
//   - opts: priority, reinitializable flag, and description
//
// Returns ErrInvalidRegistration for an empty name or nil callback, and
// ErrDuplicateRegistration if the name is already taken.
func (r *Registry) Register(name string, cb Callback, opts Options) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRegistration)
	}
	if cb == nil {
		return fmt.Errorf("%w: nil callback for %q", ErrInvalidRegistration, name)
	}

	r.mu.Lock()
	if _, exists := r.components[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateRegistration, name)
	}

	reg := &registration{
		name:            name,
		callback:        cb,
		priority:        opts.Priority,
		seq:             r.seq,
		reinitializable: opts.Reinitializable,
		description:     opts.Description,
	}
	r.seq++
	r.components[name] = reg
	running := r.phase == PhaseRunning
	r.mu.Unlock()

	r.logger.Debug("component registered",
		"component", name,
		"priority", opts.Priority,
		"reinitializable", opts.Reinitializable)

	if running {
		r.invoke(context.Background(), reg, ScopeRoot, EventInit)
	}
	return nil
}

// Run transitions the registry to the running phase and invokes every
// collected callback once, ordered by priority descending then registration
// order. Individual failures are contained and logged; Run itself only
// fails if called twice.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.phase == PhaseRunning {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.phase = PhaseRunning
	batch := r.sortedLocked()
	r.mu.Unlock()

	r.logger.Info("running component initialisation", "components", len(batch))

	for _, reg := range batch {
		r.invoke(ctx, reg, ScopeRoot, EventInit)
	}
	return nil
}

// Reinit replays the named components' callbacks against the given scope.
// The sentinel name All selects every reinitializable component. Components
// that are not reinitializable are skipped silently and unknown names are
// logged at warn level; neither stops the others. Returns the number of
// callbacks invoked.
func (r *Registry) Reinit(ctx context.Context, names []string, scope Scope) int {
	r.mu.Lock()
	var batch []*registration
	for _, name := range names {
		if name == All {
			batch = r.reinitializableLocked()
			break
		}
		reg, exists := r.components[name]
		if !exists {
			r.logger.Warn("reinit requested for unknown component", "component", name)
			continue
		}
		if !reg.reinitializable {
			continue
		}
		batch = append(batch, reg)
	}
	sortRegistrations(batch)
	r.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	r.logger.Info("reinitialising components",
		"components", len(batch),
		"scope", scope.String())

	for _, reg := range batch {
		r.invoke(ctx, reg, scope, EventReinit)
	}
	return len(batch)
}

// Status returns a snapshot of every registration in run order.
func (r *Registry) Status() []ComponentStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ComponentStatus, 0, len(r.components))
	for _, reg := range r.sortedLocked() {
		out = append(out, reg.status())
	}
	return out
}

// Phase returns the registry's current phase.
func (r *Registry) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.components)
}

// invoke runs one callback with panic containment, records the outcome, and
// notifies observers. Must be called without the registry lock held: the
// callback may itself call back into the registry.
func (r *Registry) invoke(ctx context.Context, reg *registration, scope Scope, kind EventKind) {
	runID := "run-" + uuid.NewString()[:8]
	start := time.Now()
	err := safeCall(ctx, reg.callback, scope)
	duration := time.Since(start)

	r.mu.Lock()
	reg.initialized = true
	reg.runCount++
	reg.lastRunAt = time.Now().UTC()
	if err != nil {
		reg.lastError = err.Error()
	} else {
		reg.lastError = ""
	}
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	if err != nil {
		r.logger.Error("component initialisation failed",
			"component", reg.name,
			"description", reg.description,
			"kind", string(kind),
			"scope", scope.String(),
			"error", err)
	} else {
		r.logger.Debug("component initialised",
			"component", reg.name,
			"kind", string(kind),
			"scope", scope.String(),
			"duration_ms", duration.Milliseconds())
	}

	event := Event{
		RunID:     runID,
		Component: reg.name,
		Kind:      kind,
		Scope:     scope,
		Duration:  duration,
		Err:       err,
	}
	for _, obs := range observers {
		r.notify(obs, event)
	}
}

// notify delivers one event with panic containment so a broken observer
// cannot take down the run.
func (r *Registry) notify(obs Observer, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("lifecycle observer panicked",
				"component", event.Component,
				"panic", fmt.Sprintf("%v", rec))
		}
	}()
	obs(event)
}

// sortedLocked returns all registrations in run order. Caller must hold mu.
func (r *Registry) sortedLocked() []*registration {
	regs := make([]*registration, 0, len(r.components))
	for _, reg := range r.components {
		regs = append(regs, reg)
	}
	sortRegistrations(regs)
	return regs
}

// reinitializableLocked returns the reinitializable subset. Caller must
// hold mu.
func (r *Registry) reinitializableLocked() []*registration {
	var regs []*registration
	for _, reg := range r.components {
		if reg.reinitializable {
			regs = append(regs, reg)
		}
	}
	return regs
}

// sortRegistrations orders by priority descending, then registration order.
func sortRegistrations(regs []*registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
}

// safeCall invokes a callback, converting a panic into an error.
func safeCall(ctx context.Context, cb Callback, scope Scope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("callback panicked: %v", rec)
		}
	}()
	return cb(ctx, scope)
}
