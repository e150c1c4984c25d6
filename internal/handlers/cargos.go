package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/repository"
)

func (r *Router) listCargos(w http.ResponseWriter, req *http.Request) {
	cargos, err := r.cargos.ListWithSKU(req.Context())
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, cargos)
}

func (r *Router) createCargo(w http.ResponseWriter, req *http.Request) {
	body, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	id, err := r.cargos.Create(req.Context(), repository.Fields(body))
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("cargo", "create")
	respondSuccess(w, map[string]any{"id": id})
}

// updateCargo replaces position and rotation; omitted values become 0
func (r *Router) updateCargo(w http.ResponseWriter, req *http.Request) {
	body, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.cargos.Update(req.Context(), mux.Vars(req)["id"], repository.Fields(body)); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("cargo", "update")
	respondSuccess(w, nil)
}

func (r *Router) deleteCargo(w http.ResponseWriter, req *http.Request) {
	if err := r.cargos.Delete(req.Context(), mux.Vars(req)["id"]); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("cargo", "delete")
	respondSuccess(w, nil)
}

func (r *Router) clearCargos(w http.ResponseWriter, req *http.Request) {
	if err := r.cargos.ClearAll(req.Context()); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordMutation("cargo", "clear")
	r.log.Info("all cargos cleared")
	respondSuccess(w, nil)
}
