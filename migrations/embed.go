// Package migrations embeds SQL migration files for use at runtime.
// Migrations are embedded so they work regardless of working directory.
package migrations

import "embed"

// FS contains all .sql files in this directory, applied in name order.
//
//go:embed *.sql
var FS embed.FS
