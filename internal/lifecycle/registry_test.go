package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func noop(ctx context.Context, scope Scope) error { return nil }

// recorder builds callbacks that append their component name to a shared
// order slice.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) callback(name string) Callback {
	return func(ctx context.Context, scope Scope) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, name)
		return nil
	}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d invocations %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("invocation order = %v, want %v", got, want)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("", noop, Options{}); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("empty name: got %v, want ErrInvalidRegistration", err)
	}
	if err := reg.Register("nav", nil, Options{}); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil callback: got %v, want ErrInvalidRegistration", err)
	}
	if err := reg.Register("nav", noop, Options{}); err != nil {
		t.Fatalf("valid registration failed: %v", err)
	}
	if err := reg.Register("nav", noop, Options{}); !errors.Is(err, ErrDuplicateRegistration) {
		t.Errorf("duplicate name: got %v, want ErrDuplicateRegistration", err)
	}
}

func TestRunOrdersByPriorityThenRegistration(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	// Equal priorities tie-break on registration order.
	mustRegister(t, reg, "a", rec.callback("a"), Options{Priority: 10})
	mustRegister(t, reg, "b", rec.callback("b"), Options{Priority: 20})
	mustRegister(t, reg, "c", rec.callback("c"), Options{Priority: 10})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	assertOrder(t, rec.got(), []string{"b", "a", "c"})
}

func TestRunOnlyOnce(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if err := reg.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run: got %v, want ErrAlreadyRunning", err)
	}
}

func TestLateRegistrationInvokesImmediately(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	mustRegister(t, reg, "late", rec.callback("late"), Options{Priority: 99})

	assertOrder(t, rec.got(), []string{"late"})

	status := findStatus(t, reg, "late")
	if !status.Initialized {
		t.Error("late registration not marked initialised")
	}
	if status.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", status.RunCount)
	}
}

func TestReinitSkipsOneShotComponents(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	mustRegister(t, reg, "oneshot", rec.callback("oneshot"), Options{Priority: 10})
	mustRegister(t, reg, "live", rec.callback("live"), Options{Priority: 5, Reinitializable: true})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	invoked := reg.Reinit(context.Background(), []string{"oneshot", "live"}, ScopeRoot)
	if invoked != 1 {
		t.Errorf("Reinit invoked %d callbacks, want 1", invoked)
	}

	assertOrder(t, rec.got(), []string{"oneshot", "live", "live"})

	if got := findStatus(t, reg, "oneshot").RunCount; got != 1 {
		t.Errorf("one-shot RunCount = %d, want 1", got)
	}
}

func TestReinitAllSentinel(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	mustRegister(t, reg, "nav", rec.callback("nav"), Options{Priority: 30, Reinitializable: true})
	mustRegister(t, reg, "banner", rec.callback("banner"), Options{Priority: 10})
	mustRegister(t, reg, "board", rec.callback("board"), Options{Priority: 20, Reinitializable: true})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	invoked := reg.Reinit(context.Background(), []string{All}, Scope{Region: "standings"})
	if invoked != 2 {
		t.Errorf("Reinit invoked %d callbacks, want 2", invoked)
	}

	// Replay keeps the same priority ordering as the initial pass.
	assertOrder(t, rec.got(), []string{"nav", "board", "banner", "nav", "board"})
}

func TestReinitUnknownNameIsNotFatal(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	mustRegister(t, reg, "board", rec.callback("board"), Options{Reinitializable: true})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	invoked := reg.Reinit(context.Background(), []string{"missing", "board"}, ScopeRoot)
	if invoked != 1 {
		t.Errorf("Reinit invoked %d callbacks, want 1", invoked)
	}
}

func TestReinitForwardsScope(t *testing.T) {
	reg := NewRegistry()
	var seen []Scope

	mustRegister(t, reg, "board", func(ctx context.Context, scope Scope) error {
		seen = append(seen, scope)
		return nil
	}, Options{Reinitializable: true})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	reg.Reinit(context.Background(), []string{"board"}, Scope{Region: "fixtures"})

	if len(seen) != 2 {
		t.Fatalf("callback invoked %d times, want 2", len(seen))
	}
	if !seen[0].IsRoot() {
		t.Errorf("initial scope = %q, want root", seen[0])
	}
	if seen[1].Region != "fixtures" {
		t.Errorf("reinit scope = %q, want fixtures", seen[1].Region)
	}
}

func TestFailureIsolation(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	mustRegister(t, reg, "broken-error", func(ctx context.Context, scope Scope) error {
		return errors.New("no fixtures available")
	}, Options{Priority: 30})
	mustRegister(t, reg, "broken-panic", func(ctx context.Context, scope Scope) error {
		panic("nil schedule")
	}, Options{Priority: 20})
	mustRegister(t, reg, "healthy", rec.callback("healthy"), Options{Priority: 10})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	assertOrder(t, rec.got(), []string{"healthy"})

	if got := findStatus(t, reg, "broken-error").LastError; got != "no fixtures available" {
		t.Errorf("broken-error LastError = %q", got)
	}
	if got := findStatus(t, reg, "broken-panic").LastError; got == "" {
		t.Error("broken-panic LastError is empty, want panic message")
	}
	if !findStatus(t, reg, "broken-panic").Initialized {
		t.Error("failed component should still be marked initialised")
	}
}

func TestStatusOrderAndFields(t *testing.T) {
	reg := NewRegistry()

	mustRegister(t, reg, "low", noop, Options{Priority: 1, Description: "low priority"})
	mustRegister(t, reg, "high", noop, Options{Priority: 9, Reinitializable: true})

	status := reg.Status()
	if len(status) != 2 {
		t.Fatalf("got %d statuses, want 2", len(status))
	}
	if status[0].Name != "high" || status[1].Name != "low" {
		t.Errorf("status order = [%s %s], want [high low]", status[0].Name, status[1].Name)
	}
	if status[1].Description != "low priority" {
		t.Errorf("Description = %q", status[1].Description)
	}
	if status[0].Initialized || status[0].RunCount != 0 {
		t.Error("component marked initialised before Run")
	}
	if status[0].LastRunAt != nil {
		t.Error("LastRunAt set before Run")
	}

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	after := findStatus(t, reg, "high")
	if !after.Initialized || after.RunCount != 1 || after.LastRunAt == nil {
		t.Errorf("post-run status = %+v", after)
	}
}

func TestPhaseTransitions(t *testing.T) {
	reg := NewRegistry()
	if got := reg.Phase(); got != PhaseCollecting {
		t.Errorf("initial phase = %q, want %q", got, PhaseCollecting)
	}
	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := reg.Phase(); got != PhaseRunning {
		t.Errorf("post-run phase = %q, want %q", got, PhaseRunning)
	}
}

func TestObserversReceiveEvents(t *testing.T) {
	reg := NewRegistry()
	var events []Event

	reg.AddObserver(func(e Event) { events = append(events, e) })
	// A panicking observer must not disturb delivery to the others.
	reg.AddObserver(func(e Event) { panic("observer bug") })

	mustRegister(t, reg, "board", noop, Options{Reinitializable: true})
	mustRegister(t, reg, "broken", func(ctx context.Context, scope Scope) error {
		return errors.New("boom")
	}, Options{})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	reg.Reinit(context.Background(), []string{"board"}, Scope{Region: "fixtures"})

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != EventInit || events[0].Component != "board" {
		t.Errorf("event[0] = %+v", events[0])
	}
	if events[1].Err == nil {
		t.Error("event for failed callback missing error")
	}
	if events[2].Kind != EventReinit || events[2].Scope.Region != "fixtures" {
		t.Errorf("event[2] = %+v", events[2])
	}
	for i, e := range events {
		if e.RunID == "" {
			t.Errorf("event[%d] missing run ID", i)
		}
	}
}

func TestRegistrationDuringRun(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	mustRegister(t, reg, "loader", func(ctx context.Context, scope Scope) error {
		// A component whose setup pulls in another module.
		return reg.Register("pulled-in", rec.callback("pulled-in"), Options{})
	}, Options{Priority: 10})
	mustRegister(t, reg, "tail", rec.callback("tail"), Options{Priority: 5})

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := rec.got()
	if len(got) != 2 {
		t.Fatalf("got invocations %v, want pulled-in and tail", got)
	}
	if reg.Count() != 3 {
		t.Errorf("Count = %d, want 3", reg.Count())
	}
}

func TestManyComponentsStableOrder(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}

	var want []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("comp-%02d", i)
		want = append(want, name)
		mustRegister(t, reg, name, rec.callback(name), Options{Priority: 7})
	}

	if err := reg.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	assertOrder(t, rec.got(), want)
}

func mustRegister(t *testing.T, reg *Registry, name string, cb Callback, opts Options) {
	t.Helper()
	if err := reg.Register(name, cb, opts); err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
}

func findStatus(t *testing.T, reg *Registry, name string) ComponentStatus {
	t.Helper()
	for _, s := range reg.Status() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("component %q not in status", name)
	return ComponentStatus{}
}
