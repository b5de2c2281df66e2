// Package migrations embeds the goose SQL migrations for the local store.
//
// Schema upgrades must stay additive (new tables, columns or indexes only):
// a destructive migration could drop rows that were edited offline and not
// yet pushed to the server.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
