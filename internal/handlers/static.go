package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckshelf/internal/storage"
)

// serveUpload streams a stored image from one storage area
func (r *Router) serveUpload(area string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		filename := mux.Vars(req)["filename"]
		if storage.ValidFilename(filename) != nil {
			respondError(w, http.StatusNotFound, "File not found")
			return
		}

		rc, info, err := r.blobs.Open(req.Context(), storage.Key(area, filename))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, http.StatusNotFound, "File not found")
				return
			}
			r.respondAppError(w, req, err)
			return
		}
		defer rc.Close()

		if info.ContentType != "" {
			w.Header().Set("Content-Type", info.ContentType)
		}
		if rs, ok := rc.(io.ReadSeeker); ok {
			http.ServeContent(w, req, filename, info.LastModified, rs)
			return
		}

		if info.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if req.Method != http.MethodHead {
			io.Copy(w, rc)
		}
	}
}
