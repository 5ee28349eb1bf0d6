// Package migrations embeds the goose SQL migrations, one directory per
// SQL dialect.
package migrations

import "embed"

// Directory names inside Migrations.
const (
	DirPostgres = "postgres"
	DirSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS
