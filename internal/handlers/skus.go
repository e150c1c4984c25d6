package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/repository"
	"github.com/xelth-com/eckshelf/internal/services/printer"
)

// HeaderTotalCount carries the number of SKUs matching a list query
const HeaderTotalCount = "X-Total-Count"

// queryInt reads an integer query parameter, falling back on absence or
// garbage
func queryInt(req *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(req.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

// listSKUs returns one page of SKUs as an array; the total is in a header
func (r *Router) listSKUs(w http.ResponseWriter, req *http.Request) {
	page, err := r.skus.List(req.Context(), repository.ListParams{
		Page:    queryInt(req, "page", 1),
		PerPage: queryInt(req, "per_page", repository.DefaultPerPage),
		Search:  req.URL.Query().Get("search"),
	})
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	w.Header().Set(HeaderTotalCount, strconv.FormatInt(page.Total, 10))
	respondJSON(w, http.StatusOK, page.Items)
}

func (r *Router) countSKUs(w http.ResponseWriter, req *http.Request) {
	count, err := r.skus.Count(req.Context())
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (r *Router) createSKU(w http.ResponseWriter, req *http.Request) {
	body, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	sku, err := r.skus.Create(req.Context(), repository.Fields(body))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("sku", "create")
	respondSuccess(w, map[string]any{"sku": sku})
}

func (r *Router) getSKU(w http.ResponseWriter, req *http.Request) {
	sku, err := r.skus.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sku)
}

func (r *Router) updateSKU(w http.ResponseWriter, req *http.Request) {
	body, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	sku, err := r.skus.Update(req.Context(), mux.Vars(req)["id"], repository.Fields(body))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("sku", "update")
	respondSuccess(w, map[string]any{"sku": sku})
}

func (r *Router) deleteSKU(w http.ResponseWriter, req *http.Request) {
	if err := r.skus.Delete(req.Context(), mux.Vars(req)["id"]); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("sku", "delete")
	respondSuccess(w, nil)
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (r *Router) batchDeleteSKUs(w http.ResponseWriter, req *http.Request) {
	var body idsRequest
	if err := decodeInto(req, &body); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	deleted, err := r.skus.BatchDelete(req.Context(), body.IDs)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.CatalogMutations.WithLabelValues("sku", "delete").Add(float64(deleted))
	respondSuccess(w, map[string]any{"deleted_count": deleted})
}

// skuQRCode returns a PNG QR code of the SKU code
func (r *Router) skuQRCode(w http.ResponseWriter, req *http.Request) {
	sku, err := r.skus.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	size := queryInt(req, "size", 256)
	if size < 64 || size > 1024 {
		r.respondAppError(w, req, apperrors.BadRequest("size must be between 64 and 1024"))
		return
	}
	png, err := printer.QRCodePNG(sku.SKUCode, size)
	if err != nil {
		r.respondAppError(w, req, apperrors.Internal(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}
