package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/imaging"
	"github.com/xelth-com/eckshelf/internal/metrics"
	"github.com/xelth-com/eckshelf/internal/models"
	"github.com/xelth-com/eckshelf/internal/storage"
)

// uploadURL is where serveUpload exposes a stored file
func uploadURL(area, filename string) string {
	return "/static/uploads/" + area + "/" + filename
}

// parseUpload reads the multipart form, bounded by the upload limit. Other
// parse failures leave MultipartForm empty and surface as missing files.
func (r *Router) parseUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	err := req.ParseMultipartForm(r.maxUpload)
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.BadRequest("File too large").Wrap(err)
	}
	return nil
}

// uploadImage stores an SKU picture and its thumbnail
func (r *Router) uploadImage(w http.ResponseWriter, req *http.Request) {
	if err := r.parseUpload(w, req); err != nil {
		r.respondAppError(w, req, err)
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		// a part named "file" without a filename arrives as a plain value
		if req.MultipartForm != nil && len(req.MultipartForm.Value["file"]) > 0 {
			respondError(w, http.StatusBadRequest, "No selected file")
			return
		}
		respondError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondError(w, http.StatusBadRequest, "No selected file")
		return
	}

	stored, err := r.images.StoreOriginal(req.Context(), file, header.Filename)
	if err != nil {
		r.respondAppError(w, req, err)
		return
	}
	r.metrics.RecordImageStored(metrics.KindOriginal)

	resp := map[string]any{
		"image":     stored.Filename,
		"thumbnail": "",
		"image_url": uploadURL(storage.AreaImages, stored.Filename),
	}
	if thumb, ok := r.images.GenerateThumbnail(req.Context(), stored); ok {
		r.metrics.RecordImageStored(metrics.KindThumbnail)
		resp["thumbnail"] = thumb
		resp["thumbnail_url"] = uploadURL(storage.AreaThumbnails, thumb)
	} else {
		r.metrics.RecordImageFailure(metrics.KindThumbnail)
	}
	respondSuccess(w, resp)
}

// firstFile returns the first uploaded file for a form field, or nil
func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if form == nil || len(form.File[field]) == 0 {
		return nil
	}
	return form.File[field][0]
}

func (r *Router) storeFace(req *http.Request, face string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", apperrors.Internal(err)
	}
	defer f.Close()
	return r.images.StoreTextureFace(req.Context(), face, f, fh.Filename)
}

// uploadTextures stores up to six face textures and builds the unfolded-box
// preview. Faces with a missing or invalid file are skipped.
func (r *Router) uploadTextures(w http.ResponseWriter, req *http.Request) {
	if err := r.parseUpload(w, req); err != nil {
		r.respondAppError(w, req, err)
		return
	}

	textures := map[string]string{}
	byFace := map[string]string{}
	for _, face := range models.Faces {
		field := "texture_" + face
		fh := firstFile(req.MultipartForm, field)
		if fh == nil || fh.Filename == "" || !imaging.ValidExtension(fh.Filename) {
			continue
		}
		filename, err := r.storeFace(req, face, fh)
		if err != nil {
			r.respondAppError(w, req, err)
			return
		}
		r.metrics.RecordImageStored(metrics.KindTexture)
		textures[field] = filename
		byFace[face] = filename
	}

	if len(textures) == 0 {
		respondError(w, http.StatusBadRequest, "No valid texture files uploaded")
		return
	}

	var composite any
	if name, err := r.images.CompositeThumbnail(req.Context(), byFace); err != nil {
		r.log.Warn("composite thumbnail failed", "error", err)
		r.metrics.RecordImageFailure(metrics.KindComposite)
	} else {
		r.metrics.RecordImageStored(metrics.KindComposite)
		composite = name
	}

	respondSuccess(w, map[string]any{
		"textures":            textures,
		"composite_thumbnail": composite,
	})
}
