package migrations

import "embed"

// FS contains embedded SQLite migrations for follow graph storage.
//
//go:embed *.sql
var FS embed.FS
