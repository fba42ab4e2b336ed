package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pitchside/pitchside-core/internal/infrastructure/database"
	"github.com/pitchside/pitchside-core/internal/lifecycle"
)

const createRunsTable = `
CREATE TABLE component_runs (
    id          TEXT PRIMARY KEY,
    run_id      TEXT NOT NULL,
    component   TEXT NOT NULL,
    kind        TEXT NOT NULL,
    scope       TEXT,
    duration_ms INTEGER NOT NULL,
    outcome     TEXT NOT NULL,
    error       TEXT,
    created_at  TEXT NOT NULL
)`

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "history.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(context.Background(), createRunsTable); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func seedEvent(t *testing.T, repo *SQLiteRepository, component, kind, outcome string, at time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), &RunEvent{
		RunID:      "run-test01",
		Component:  component,
		Kind:       kind,
		Scope:      "root",
		DurationMs: 12,
		Outcome:    outcome,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}
}

func TestCreateGeneratesIDAndTimestamp(t *testing.T) {
	repo := newTestRepo(t)

	event := &RunEvent{
		RunID:     "run-abc123",
		Component: "schedule-board",
		Kind:      "init",
		Outcome:   "ok",
	}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if event.ID == "" {
		t.Error("ID not generated")
	}
	if event.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedEvent(t, repo, "schedule-board", "init", "ok", base)
	seedEvent(t, repo, "schedule-board", "reinit", "ok", base.Add(time.Minute))
	seedEvent(t, repo, "nav-menu", "init", "error", base.Add(2*time.Minute))

	t.Run("no filter returns all, newest first", func(t *testing.T) {
		result, err := repo.List(context.Background(), Filter{})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.Total != 3 || len(result.Events) != 3 {
			t.Fatalf("total=%d events=%d, want 3/3", result.Total, len(result.Events))
		}
		if result.Events[0].Component != "nav-menu" {
			t.Errorf("first event = %s, want nav-menu", result.Events[0].Component)
		}
	})

	t.Run("filter by component", func(t *testing.T) {
		result, err := repo.List(context.Background(), Filter{Component: "schedule-board"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.Total != 2 {
			t.Errorf("total = %d, want 2", result.Total)
		}
	})

	t.Run("filter by kind and outcome", func(t *testing.T) {
		result, err := repo.List(context.Background(), Filter{Kind: "init", Outcome: "error"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.Total != 1 || result.Events[0].Component != "nav-menu" {
			t.Errorf("got %+v", result.Events)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(context.Background(), Filter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if result.Total != 3 || len(result.Events) != 1 {
			t.Errorf("total=%d page=%d, want 3/1", result.Total, len(result.Events))
		}
	})
}

func TestListClampsLimit(t *testing.T) {
	repo := newTestRepo(t)

	result, err := repo.List(context.Background(), Filter{Limit: 10000})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Limit != 200 {
		t.Errorf("limit = %d, want clamped to 200", result.Limit)
	}

	result, err = repo.List(context.Background(), Filter{Limit: -5, Offset: -1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Limit != 50 || result.Offset != 0 {
		t.Errorf("limit=%d offset=%d, want 50/0", result.Limit, result.Offset)
	}
	if result.Events == nil {
		t.Error("empty result should marshal as [], not null")
	}
}

func TestRecorderPersistsLifecycleEvents(t *testing.T) {
	repo := newTestRepo(t)
	obs := Recorder(repo, nil)

	obs(lifecycle.Event{
		RunID:     "run-ok",
		Component: "schedule-board",
		Kind:      lifecycle.EventInit,
		Scope:     lifecycle.ScopeRoot,
		Duration:  42 * time.Millisecond,
	})
	obs(lifecycle.Event{
		RunID:     "run-bad",
		Component: "nav-menu",
		Kind:      lifecycle.EventReinit,
		Scope:     lifecycle.Scope{Region: "standings"},
		Duration:  3 * time.Millisecond,
		Err:       errors.New("fixture feed unavailable"),
	})

	result, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Total)
	}

	byComponent := map[string]RunEvent{}
	for _, e := range result.Events {
		byComponent[e.Component] = e
	}
	ok := byComponent["schedule-board"]
	if ok.Outcome != "ok" || ok.DurationMs != 42 || ok.Scope != "root" {
		t.Errorf("ok event = %+v", ok)
	}
	bad := byComponent["nav-menu"]
	if bad.Outcome != "error" || bad.Error != "fixture feed unavailable" || bad.Scope != "standings" {
		t.Errorf("error event = %+v", bad)
	}
}
