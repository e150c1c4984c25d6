package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/apperrors"
)

func (r *Router) listShelves(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.layout.ListShelves())
}

// addShelf appends a shelf and returns its index as id
func (r *Router) addShelf(w http.ResponseWriter, req *http.Request) {
	shelf, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	index, err := r.layout.AddShelf(shelf)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondSuccess(w, map[string]any{"id": index})
}

// shelfIndex parses {index}; anything that is not an integer is an unknown
// shelf
func shelfIndex(req *http.Request) (int, error) {
	index, err := strconv.Atoi(mux.Vars(req)["index"])
	if err != nil {
		return 0, apperrors.NotFound("Invalid shelf ID")
	}
	return index, nil
}

func (r *Router) updateShelf(w http.ResponseWriter, req *http.Request) {
	index, err := shelfIndex(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	partial, err := decodeObject(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.layout.UpdateShelf(index, partial); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondSuccess(w, nil)
}

func (r *Router) deleteShelf(w http.ResponseWriter, req *http.Request) {
	index, err := shelfIndex(req)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	if err := r.layout.DeleteShelf(index); err != nil {
		r.respondAppError(w, req, err)
		return
	}
	respondSuccess(w, nil)
}
