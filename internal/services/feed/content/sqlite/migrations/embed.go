package migrations

import "embed"

// FS contains embedded SQLite migrations for the content index.
//
//go:embed *.sql
var FS embed.FS
