package handlers

import (
	"net/http"

	"github.com/xelth-com/eckshelf/internal/layout"
	"github.com/xelth-com/eckshelf/internal/repository"
)

// getConfig returns the layout document. Also serves POST /api/export.
func (r *Router) getConfig(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.layout.Load())
}

// updateConfig shallow-merges the body into the document
func (r *Router) updateConfig(w http.ResponseWriter, req *http.Request) {
	partial, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.layout.UpdateFull(partial); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondSuccess(w, nil)
}

// updateGlobalConfig merges the body into global_params
func (r *Router) updateGlobalConfig(w http.ResponseWriter, req *http.Request) {
	partial, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.layout.UpdateGlobal(partial); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondSuccess(w, nil)
}

// importConfig replaces the document, archiving the previous one first
func (r *Router) importConfig(w http.ResponseWriter, req *http.Request) {
	doc, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}

	if _, err := r.snapshots.Create(req.Context(), repository.SnapshotReasonImport, r.layout.Load()); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.layout.Save(layout.Document(doc)); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.log.Info("layout imported", "keys", len(doc))
	respondSuccess(w, nil)
}

// listSnapshots returns archived layouts, newest first
func (r *Router) listSnapshots(w http.ResponseWriter, req *http.Request) {
	limit := queryInt(req, "limit", 20)
	snaps, err := r.snapshots.List(req.Context(), limit)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, snaps)
}

// getStatistics reports cell occupancy and the catalog size
func (r *Router) getStatistics(w http.ResponseWriter, req *http.Request) {
	count, err := r.skus.Count(req.Context())
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, r.layout.Statistics(count))
}
