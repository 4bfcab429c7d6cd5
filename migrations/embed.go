// Package migrations compiles the SQL schema files into the binary so a
// deployment needs no migration directory on disk.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// GetFS hands the embedded schema files to the migration runner
func GetFS() fs.FS {
	return files
}
