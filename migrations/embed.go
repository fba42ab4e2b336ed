// Package migrations embeds SQL migration files into the binary, so
// Pitchside Core can migrate its schema without the .sql files present on
// the filesystem.
package migrations

import (
	"embed"

	"github.com/pitchside/pitchside-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
