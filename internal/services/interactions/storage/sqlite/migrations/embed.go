package migrations

import "embed"

// FS contains embedded SQLite migrations for interaction storage.
//
//go:embed *.sql
var FS embed.FS
