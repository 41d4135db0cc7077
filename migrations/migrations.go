// Package migrations embeds the SQLite schema.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS

// Initial is the first schema migration.
const Initial = "001_initial_schema.up.sql"
