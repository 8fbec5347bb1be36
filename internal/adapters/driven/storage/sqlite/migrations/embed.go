// Package migrations embeds SQL migration files for the SQLite stores.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed infobox/*.sql linkgraph/*.sql
var all embed.FS

// Infobox contains the migrations of infobox field databases.
var Infobox = mustSub("infobox")

// LinkGraph contains the migrations of link-graph databases.
var LinkGraph = mustSub("linkgraph")

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(all, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
