// Package db embeds the goose migrations for the user database.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
