// Package printer renders SKU labels as printable PDF sheets.
package printer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// A4 page size in millimeters
const (
	pageWidth  = 210.0
	pageHeight = 297.0
)

// LabelConfig describes the label grid on an A4 sheet. Lengths are in mm.
type LabelConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"margin_top"`
	MarginLeft float64 `json:"margin_left"`
	GapX       float64 `json:"gap_x"`
	GapY       float64 `json:"gap_y"`
}

// DefaultLabelConfig is a 3×7 sheet
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Cols: 3, Rows: 7, MarginTop: 10, MarginLeft: 5, GapX: 2, GapY: 2}
}

// WithDefaults fills zero grid dimensions from DefaultLabelConfig
func (c LabelConfig) WithDefaults() LabelConfig {
	def := DefaultLabelConfig()
	if c.Cols <= 0 {
		c.Cols = def.Cols
	}
	if c.Rows <= 0 {
		c.Rows = def.Rows
	}
	return c
}

// Label is the content printed for one SKU
type Label struct {
	Code       string // encoded in the QR code
	Name       string
	Dimensions string
	BoxCode    string
}

// QRCodePNG encodes content as a PNG QR code of size×size pixels
func QRCodePNG(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

// GenerateLabelsPDF lays labels out row by row, starting a new page when the
// grid is full
func GenerateLabelsPDF(cfg LabelConfig, labels []Label) ([]byte, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labels to print")
	}
	cfg = cfg.WithDefaults()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	// margins are symmetric
	availW := pageWidth - cfg.MarginLeft*2
	availH := pageHeight - cfg.MarginTop*2

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)
	if labelW <= 0 || labelH <= 0 {
		return nil, fmt.Errorf("label grid %dx%d does not fit on the page", cfg.Cols, cfg.Rows)
	}

	labelsPerPage := cfg.Cols * cfg.Rows
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		// top-left of the label
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := QRCodePNG(label.Code, 256)
		if err != nil {
			return nil, fmt.Errorf("qr for %s: %w", label.Code, err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		// QR on the left, text on the right
		qrSize := labelH * 0.85
		if qrSize > labelW*0.45 {
			qrSize = labelW * 0.45
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3

		pdf.SetXY(textX, y+2)
		pdf.SetFontSize(8)
		pdf.CellFormat(textW, 4, tr(label.Code), "", 2, "L", false, 0, "")

		pdf.SetFont("Arial", "", 7)
		pdf.SetX(textX)
		pdf.CellFormat(textW, 4, tr(label.Name), "", 2, "L", false, 0, "")
		pdf.SetX(textX)
		pdf.CellFormat(textW, 4, tr(label.Dimensions), "", 2, "L", false, 0, "")

		if label.BoxCode != "" {
			pdf.SetXY(x, y+labelH-4)
			pdf.SetFontSize(6)
			pdf.CellFormat(labelW-1, 3, label.BoxCode, "", 0, "R", false, 0, "")
		}
		pdf.SetFont("Arial", "B", 10)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
