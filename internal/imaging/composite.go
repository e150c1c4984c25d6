package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/storage"
)

// Composite geometry: a 4×3 grid of square cells
const (
	CompositeCell   = 100
	CompositeWidth  = 4 * CompositeCell
	CompositeHeight = 3 * CompositeCell
)

// CompositeBackground fills cells without a texture
var CompositeBackground = color.RGBA{R: 240, G: 240, B: 240, A: 255}

// compositeLayout places each face of the unfolded box as a cross
var compositeLayout = map[string]image.Point{
	"top":    {1, 0},
	"left":   {0, 1},
	"front":  {1, 1},
	"right":  {2, 1},
	"back":   {3, 1},
	"bottom": {1, 2},
}

// CellRect returns the canvas rectangle of a grid cell
func CellRect(col, row int) image.Rectangle {
	return image.Rect(col*CompositeCell, row*CompositeCell, (col+1)*CompositeCell, (row+1)*CompositeCell)
}

// CompositeThumbnail builds an unfolded-box preview from face textures keyed
// by face name (top, bottom, front, back, left, right) and stores it as
// sku_composite_<id>.jpg. Faces that are absent or fail to decode leave
// their cell blank.
func (p *Pipeline) CompositeThumbnail(ctx context.Context, textures map[string]string) (string, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, CompositeWidth, CompositeHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(CompositeBackground), image.Point{}, draw.Src)

	for face, cell := range compositeLayout {
		filename := textures[face]
		if filename == "" {
			continue
		}
		src, err := p.decode(ctx, storage.AreaImages, filename)
		if err != nil {
			p.log.Warn("skipping texture in composite", "face", face, "file", filename, "error", err)
			continue
		}
		b := src.Bounds()
		if b.Empty() {
			continue
		}
		w, h := fit(b.Dx(), b.Dy(), CompositeCell, CompositeCell)
		origin := CellRect(cell.X, cell.Y).Min.Add(image.Pt((CompositeCell-w)/2, (CompositeCell-h)/2))
		scaleInto(canvas, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}, src)
	}

	filename := fmt.Sprintf("sku_composite_%s.jpg", p.newID())
	if err := p.putJPEG(ctx, filename, canvas); err != nil {
		return "", apperrors.Internal(err)
	}
	return filename, nil
}
