// Package migrations embeds the SQL schema migrations so the binary is the
// only deploy artifact.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
