// Package storage holds uploaded SKU images, textures and thumbnails.
//
// Files are addressed by area and filename. The filesystem driver maps an
// area to a directory under the upload root; the S3 driver maps it to a key
// prefix inside one bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Storage areas
const (
	AreaImages     = "sku_images"
	AreaThumbnails = "sku_thumbnails"
)

// ErrNotFound is returned when a blob does not exist
var ErrNotFound = errors.New("blob not found")

// Info describes a stored blob
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is implemented by every blob backend
type Store interface {
	// Put writes the blob, replacing any existing content under key
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Open returns a reader for the blob. The reader is an io.ReadSeeker
	// when the backend supports it.
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)
	// Delete removes the blob; a missing blob is not an error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Key joins an area and a filename into a blob key
func Key(area, filename string) string {
	return area + "/" + filename
}

// ValidFilename rejects names that could escape their area
func ValidFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty filename")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid filename %q", name)
	}
	return nil
}
