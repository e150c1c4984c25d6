package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/models"
	"github.com/xelth-com/eckshelf/internal/services/printer"
	"github.com/xelth-com/eckshelf/internal/utils"
)

// labelsRequest selects the SKUs to print and the sheet layout
type labelsRequest struct {
	IDs []string `json:"ids"`
	printer.LabelConfig
}

// decodeInto reads a JSON body into v
func decodeInto(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return errInvalidPayload()
	}
	return nil
}

func skuLabel(sku *models.SKU) printer.Label {
	label := printer.Label{
		Code: sku.SKUCode,
		Name: sku.Name,
		Dimensions: fmt.Sprintf("%.0f x %.0f x %.0f cm, %.2f kg",
			sku.Length*100, sku.Width*100, sku.Height*100, sku.Weight),
	}
	// ids that are not hex (imported data) simply get no box code
	if code, err := utils.SKUBoxCode(sku.ID, sku.Length, sku.Width, sku.Height, sku.Weight); err == nil {
		label.BoxCode = code
	}
	return label
}

// generateLabels renders an A4 PDF with one label per SKU. Unknown ids are
// skipped.
func (r *Router) generateLabels(w http.ResponseWriter, req *http.Request) {
	var body labelsRequest
	if err := decodeInto(req, &body); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if len(body.IDs) == 0 {
		r.respondAppError(w, req, apperrors.BadRequest("No SKU IDs provided"))
		return
	}

	labels := make([]printer.Label, 0, len(body.IDs))
	for _, id := range body.IDs {
		sku, err := r.skus.Get(req.Context(), id)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				continue
			}
			r.respondAppError(w, req, err)
			return
		}
		labels = append(labels, skuLabel(sku))
	}
	if len(labels) == 0 {
		r.respondAppError(w, req, apperrors.BadRequest("None of the SKU IDs exist"))
		return
	}

	pdfBytes, err := printer.GenerateLabelsPDF(body.LabelConfig, labels)
	if err != nil {
		r.respondAppError(w, req, apperrors.Internal(fmt.Errorf("failed to generate PDF: %w", err)))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"sku_labels_%d.pdf\"", len(labels)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}
