// Package migrations embeds the versioned schema of the index database.
package migrations

import "embed"

// FS holds the NNN_name.up.sql files, applied in version order.
//
//go:embed *.sql
var FS embed.FS
