// Package migrations embeds the goose migrations for both storage drivers.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

func Postgres() fs.FS {
	sub, _ := fs.Sub(files, "postgres")
	return sub
}

func SQLite() fs.FS {
	sub, _ := fs.Sub(files, "sqlite")
	return sub
}
