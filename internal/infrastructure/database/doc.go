// Package database provides the SQLite persistence layer for Pitchside
// Core.
//
// It wraps database/sql with connection setup tuned for SQLite (WAL mode,
// busy timeout, single writer) and a migration runner that applies embedded
// .sql files in version order. The component run history repository builds
// on this package; it holds no domain logic itself.
//
// Migrations are embedded by the top-level migrations package:
//
//	//go:embed *.sql
//	var migrationsFS embed.FS
//
//	func init() {
//	    database.MigrationsFS = migrationsFS
//	    database.MigrationsDir = "."
//	}
//
// Migration files follow the naming scheme
// YYYYMMDD_HHMMSS_description.up.sql with an optional matching .down.sql
// for rollback.
package database
