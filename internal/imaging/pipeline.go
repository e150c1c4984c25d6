// Package imaging stores uploaded SKU pictures and derives the thumbnails
// shown in the catalog.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	// decoders for image.Decode
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/models"
	"github.com/xelth-com/eckshelf/internal/storage"
	"github.com/xelth-com/eckshelf/internal/utils"
)

// JPEGQuality is used for every generated thumbnail
const JPEGQuality = 85

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// Extension returns the lowercased suffix after the last dot, or "" if the
// name has none
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// ValidExtension reports whether name carries an accepted image extension
func ValidExtension(name string) bool {
	return allowedExtensions[Extension(name)]
}

// Stored identifies an uploaded original
type Stored struct {
	ID       string
	Filename string
}

// Pipeline writes originals and derived images to a blob store
type Pipeline struct {
	blobs storage.Store
	log   *slog.Logger
	newID func() string
}

// NewPipeline creates a pipeline on top of blobs
func NewPipeline(blobs storage.Store, log *slog.Logger) *Pipeline {
	return &Pipeline{blobs: blobs, log: log, newID: utils.ShortID}
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (p *Pipeline) put(ctx context.Context, area, filename string, r io.Reader) error {
	if err := p.blobs.Put(ctx, storage.Key(area, filename), r, contentType(filename)); err != nil {
		return apperrors.Internal(fmt.Errorf("store %s: %w", filename, err))
	}
	return nil
}

// StoreOriginal writes an uploaded image as sku_<id>.<ext>
func (p *Pipeline) StoreOriginal(ctx context.Context, r io.Reader, originalName string) (Stored, error) {
	if !ValidExtension(originalName) {
		return Stored{}, apperrors.BadRequest("Invalid file type")
	}
	id := p.newID()
	filename := fmt.Sprintf("sku_%s.%s", id, Extension(originalName))
	if err := p.put(ctx, storage.AreaImages, filename, r); err != nil {
		return Stored{}, err
	}
	return Stored{ID: id, Filename: filename}, nil
}

// StoreTextureFace writes one face texture as sku_tex_<face>_<id>.<ext>
func (p *Pipeline) StoreTextureFace(ctx context.Context, face string, r io.Reader, originalName string) (string, error) {
	if (&models.SKU{}).TexturePtr(face) == nil {
		return "", apperrors.BadRequest("unknown face %q", face)
	}
	if !ValidExtension(originalName) {
		return "", apperrors.BadRequest("Invalid file type")
	}
	filename := fmt.Sprintf("sku_tex_%s_%s.%s", face, p.newID(), Extension(originalName))
	if err := p.put(ctx, storage.AreaImages, filename, r); err != nil {
		return "", err
	}
	return filename, nil
}

// MaxDecodePixels caps width×height of an image the pipeline will decode.
// Decoding allocates per pixel, so a small file with a huge header would
// otherwise exhaust memory.
const MaxDecodePixels = 2 * 89_478_485

// ErrTooManyPixels is returned for images whose header exceeds MaxDecodePixels
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

func (p *Pipeline) decode(ctx context.Context, area, filename string) (image.Image, error) {
	if err := storage.ValidFilename(filename); err != nil {
		return nil, err
	}
	rc, _, err := p.blobs.Open(ctx, storage.Key(area, filename))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, fmt.Errorf("decode %s: %dx%d: %w", filename, cfg.Width, cfg.Height, ErrTooManyPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return img, nil
}

func (p *Pipeline) putJPEG(ctx context.Context, filename string, img image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	return p.blobs.Put(ctx, storage.Key(storage.AreaThumbnails, filename), &buf, "image/jpeg")
}
