package migrations

import "embed"

// MigrationsFS holds the embedded SQL migrations run by goose at startup.
//
//go:embed *.sql
var MigrationsFS embed.FS
