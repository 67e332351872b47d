// Package migrations embeds the goose SQL migrations for the postgres
// credential and vault stores.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
