package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/xelth-com/eckshelf/internal/storage"
)

// ThumbnailSize bounds both sides of a single-image thumbnail
const ThumbnailSize = 150

// fit scales w×h down to fit within maxW×maxH keeping the aspect ratio.
// Images that already fit keep their size.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// scaleInto draws src resized to r of dst with Catmull-Rom resampling,
// compositing over whatever dst already holds
func scaleInto(dst draw.Image, r image.Rectangle, src image.Image) {
	xdraw.CatmullRom.Scale(dst, r, src, src.Bounds(), xdraw.Over, nil)
}

// GenerateThumbnail renders the stored original into a JPEG of at most
// 150×150 named sku_<id>_thumb.jpg. Transparent areas become white. It
// returns false when the image cannot be decoded or written.
func (p *Pipeline) GenerateThumbnail(ctx context.Context, stored Stored) (string, bool) {
	filename, err := p.generateThumbnail(ctx, stored)
	if err != nil {
		p.log.Warn("thumbnail generation failed", "file", stored.Filename, "error", err)
		return "", false
	}
	return filename, true
}

func (p *Pipeline) generateThumbnail(ctx context.Context, stored Stored) (string, error) {
	src, err := p.decode(ctx, storage.AreaImages, stored.Filename)
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	if b.Empty() {
		return "", fmt.Errorf("empty image")
	}
	w, h := fit(b.Dx(), b.Dy(), ThumbnailSize, ThumbnailSize)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	scaleInto(dst, dst.Bounds(), src)

	filename := fmt.Sprintf("sku_%s_thumb.jpg", stored.ID)
	if err := p.putJPEG(ctx, filename, dst); err != nil {
		return "", err
	}
	return filename, nil
}
