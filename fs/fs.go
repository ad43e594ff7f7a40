// Package appfs embeds the files shipped with the binaries.
package appfs

import "embed"

//go:embed migrations/*.sql templates/*.txt
var FS embed.FS

const (
	MigrationsDir = "migrations"
	TemplatesDir  = "templates"
)
