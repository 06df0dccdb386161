// Package migrations compiles the schema migration files into the
// hearthd binary. Importing it for side effects hands the embedded
// filesystem to the database package's migration runner.
package migrations

import (
	"embed"

	"github.com/rowanfell/hearth-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	// The embed root is this directory, so the runner reads from ".".
	database.MigrationsDir = "."
}
