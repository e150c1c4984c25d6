package handlers

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/buildinfo"
	"github.com/xelth-com/eckshelf/internal/imaging"
	"github.com/xelth-com/eckshelf/internal/layout"
	"github.com/xelth-com/eckshelf/internal/metrics"
	"github.com/xelth-com/eckshelf/internal/middleware"
	"github.com/xelth-com/eckshelf/internal/repository"
	"github.com/xelth-com/eckshelf/internal/storage"
)

// Deps are the collaborators the HTTP layer dispatches to
type Deps struct {
	Layout    *layout.Store
	SKUs      *repository.SKURepository
	Cargos    *repository.CargoRepository
	Snapshots *repository.SnapshotRepository
	Images    *imaging.Pipeline
	Blobs     storage.Store
	Metrics   *metrics.Metrics
	Frontend  fs.FS
	Logger    *slog.Logger

	// MaxUploadBytes bounds a multipart upload request
	MaxUploadBytes int64
}

// Router wraps the mux router and the stores behind it
type Router struct {
	*mux.Router
	layout    *layout.Store
	skus      *repository.SKURepository
	cargos    *repository.CargoRepository
	snapshots *repository.SnapshotRepository
	images    *imaging.Pipeline
	blobs     storage.Store
	metrics   *metrics.Metrics
	log       *slog.Logger
	maxUpload int64
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(deps Deps) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		layout:    deps.Layout,
		skus:      deps.SKUs,
		cargos:    deps.Cargos,
		snapshots: deps.Snapshots,
		images:    deps.Images,
		blobs:     deps.Blobs,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		maxUpload: deps.MaxUploadBytes,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = 32 << 20
	}
	r.Use(middleware.Metrics(r.metrics))

	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.Handle("/metrics", r.metrics.Handler()).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Warehouse layout document
	api.HandleFunc("/config", r.getConfig).Methods("GET")
	api.HandleFunc("/config", r.updateConfig).Methods("POST")
	api.HandleFunc("/config/global", r.updateGlobalConfig).Methods("POST")
	api.HandleFunc("/config/snapshots", r.listSnapshots).Methods("GET")
	api.HandleFunc("/shelves", r.listShelves).Methods("GET")
	api.HandleFunc("/shelves", r.addShelf).Methods("POST")
	api.HandleFunc("/shelves/{index}", r.updateShelf).Methods("PUT")
	api.HandleFunc("/shelves/{index}", r.deleteShelf).Methods("DELETE")
	api.HandleFunc("/statistics", r.getStatistics).Methods("GET")
	api.HandleFunc("/export", r.getConfig).Methods("POST")
	api.HandleFunc("/import", r.importConfig).Methods("POST")

	// SKU catalog; fixed paths before /{id}
	api.HandleFunc("/skus", r.listSKUs).Methods("GET")
	api.HandleFunc("/skus", r.createSKU).Methods("POST")
	api.HandleFunc("/skus/count", r.countSKUs).Methods("GET")
	api.HandleFunc("/skus/upload-image", r.uploadImage).Methods("POST")
	api.HandleFunc("/skus/upload-textures", r.uploadTextures).Methods("POST")
	api.HandleFunc("/skus/batch-delete", r.batchDeleteSKUs).Methods("POST")
	api.HandleFunc("/skus/labels", r.generateLabels).Methods("POST")
	api.HandleFunc("/skus/{id}", r.getSKU).Methods("GET")
	api.HandleFunc("/skus/{id}", r.updateSKU).Methods("PUT")
	api.HandleFunc("/skus/{id}", r.deleteSKU).Methods("DELETE")
	api.HandleFunc("/skus/{id}/qrcode", r.skuQRCode).Methods("GET")

	// Placed cargo
	api.HandleFunc("/cargos", r.listCargos).Methods("GET")
	api.HandleFunc("/cargos", r.createCargo).Methods("POST")
	api.HandleFunc("/cargos/clear", r.clearCargos).Methods("POST")
	api.HandleFunc("/cargos/{id}", r.updateCargo).Methods("PUT")
	api.HandleFunc("/cargos/{id}", r.deleteCargo).Methods("DELETE")

	// Uploaded images
	uploads := r.PathPrefix("/static/uploads").Subrouter()
	uploads.NotFoundHandler = http.HandlerFunc(fileNotFound)
	uploads.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	uploads.HandleFunc("/"+storage.AreaImages+"/{filename}", r.serveUpload(storage.AreaImages)).Methods("GET", "HEAD")
	uploads.HandleFunc("/"+storage.AreaThumbnails+"/{filename}", r.serveUpload(storage.AreaThumbnails)).Methods("GET", "HEAD")

	// Front-end
	if deps.Frontend != nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(deps.Frontend))).Methods("GET", "HEAD")
	}

	return r
}

// Handler returns the router wrapped in the request-scoped middleware
func (r *Router) Handler() http.Handler {
	var h http.Handler = r.Router
	h = middleware.Recovery(r.log)(h)
	h = middleware.Logger(middleware.DefaultLoggerConfig(r.log))(h)
	h = middleware.RequestID(h)
	return h
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Current(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func notFound(w http.ResponseWriter, req *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}

func fileNotFound(w http.ResponseWriter, req *http.Request) {
	respondError(w, http.StatusNotFound, "File not found")
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// respondAppError maps err to its HTTP status; unexpected errors are logged
func (r *Router) respondAppError(w http.ResponseWriter, req *http.Request, err error) {
	appErr := apperrors.As(err)
	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		r.log.Error("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", middleware.GetRequestID(req.Context()),
			"error", err,
		)
	}
	respondError(w, status, appErr.Message)
}

func respondSuccess(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"status": "success"}
	for k, v := range extra {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

// errInvalidPayload is returned for bodies that are not the expected JSON
func errInvalidPayload() error {
	return apperrors.BadRequest("Invalid request payload")
}

// decodeObject reads a JSON object body
func decodeObject(req *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body == nil {
		return nil, errInvalidPayload()
	}
	return body, nil
}
