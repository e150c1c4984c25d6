// Package web bundles the front-end served at the site root.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

// IndexFile must exist in any front-end tree
const IndexFile = "index.html"

//go:embed build/*
var bundle embed.FS

// GetFileSystem returns the front-end tree. An empty dir selects the bundled
// page; otherwise dir is served from disk and must contain IndexFile.
func GetFileSystem(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(bundle, "build")
	}
	fsys := os.DirFS(dir)
	if _, err := fs.Stat(fsys, IndexFile); err != nil {
		return nil, fmt.Errorf("front-end dir %s: %w", dir, err)
	}
	return fsys, nil
}
