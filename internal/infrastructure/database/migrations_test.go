package database

import (
	"context"
	"embed"
	"testing"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the testdata fixtures and
// restores the previous state afterwards.
func useTestMigrations(t *testing.T) {
	t.Helper()
	prevFS, prevDir := MigrationsFS, MigrationsDir
	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"
	t.Cleanup(func() {
		MigrationsFS, MigrationsDir = prevFS, prevDir
	})
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"up migration", "20240101_000000_widgets.up.sql", "20240101_000000", true, true},
		{"down migration", "20240101_000000_widgets.down.sql", "20240101_000000", false, true},
		{"multi word description", "20240102_090000_widget_index.up.sql", "20240102_090000", true, true},
		{"no direction suffix", "20240101_000000_widgets.sql", "", false, false},
		{"not sql", "README.md", "", false, false},
		{"missing version parts", "notes.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20240102_090000_widget_index.up.sql"); got != "widget_index" {
		t.Errorf("got %q, want widget_index", got)
	}
}

func TestMigrateAppliesPendingInOrder(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Fatalf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}
	if applied[0].Version != "20240101_000000" {
		t.Errorf("first applied = %s", applied[0].Version)
	}

	// Table from the first migration must exist.
	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (name) VALUES ('corner flag')"); err != nil {
		t.Errorf("widgets table missing: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	applied, _, err := db.GetMigrationStatus(ctx)
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d after rerun, want 2", len(applied))
	}
}

func TestMigrateDownRollsBackLatest(t *testing.T) {
	useTestMigrations(t)
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	// The latest migration (the index) has no down file, so rollback must
	// refuse rather than silently skip.
	if err := db.MigrateDown(ctx); err == nil {
		t.Fatal("MigrateDown succeeded for migration without down SQL")
	}
}

func TestMigrateWithNoEmbeddedFiles(t *testing.T) {
	db := openTestDB(t)
	// Default package state: no embedded FS set.
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Migrate with no migrations failed: %v", err)
	}
}
