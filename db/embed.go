// Package db embeds the schema migrations shared by PostgreSQL and SQLite.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
