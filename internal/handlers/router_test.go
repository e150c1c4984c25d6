package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckshelf/internal/config"
	"github.com/xelth-com/eckshelf/internal/database"
	"github.com/xelth-com/eckshelf/internal/imaging"
	"github.com/xelth-com/eckshelf/internal/layout"
	"github.com/xelth-com/eckshelf/internal/logging"
	"github.com/xelth-com/eckshelf/internal/metrics"
	"github.com/xelth-com/eckshelf/internal/repository"
	"github.com/xelth-com/eckshelf/internal/storage"
)

type testServer struct {
	handler http.Handler
	blobs   storage.Store
	layout  *layout.Store
}

func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	dir := t.TempDir()
	log := logging.Discard()

	db, err := database.Connect(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(dir, "sku_data.db"),
	}, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	blobs, err := storage.NewFSStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	layoutStore := layout.NewStore(filepath.Join(dir, "warehouse_config.json"), log)

	deps := Deps{
		Layout:    layoutStore,
		SKUs:      repository.NewSKURepository(db.DB, blobs, log),
		Cargos:    repository.NewCargoRepository(db.DB),
		Snapshots: repository.NewSnapshotRepository(db.DB),
		Images:    imaging.NewPipeline(blobs, log),
		Blobs:     blobs,
		Metrics:   metrics.New(metrics.DefaultConfig()),
		Frontend:  fstest.MapFS{"index.html": {Data: []byte("<html>shelf</html>")}},
		Logger:    log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	router := NewRouter(deps)
	return &testServer{handler: router.Handler(), blobs: blobs, layout: layoutStore}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type object = map[string]any

func (s *testServer) createSKU(t *testing.T, fields object) object {
	t.Helper()
	rec := s.do(t, "POST", "/api/skus", fields)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[object](t, rec)["sku"].(object)
}

func TestHealthAndFrontend(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[object](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shelf")
}

func TestUnknownRoutesAnswerJSON(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path string
		status       int
		message      string
	}{
		{"GET", "/api/nope", http.StatusNotFound, "Not found"},
		{"GET", "/api/skus/abc/extra", http.StatusNotFound, "Not found"},
		{"DELETE", "/api/config", http.StatusMethodNotAllowed, "Method not allowed"},
		{"PATCH", "/api/skus/abc", http.StatusMethodNotAllowed, "Method not allowed"},
		{"POST", "/health", http.StatusMethodNotAllowed, "Method not allowed"},
		{"GET", "/static/uploads/other/a.png", http.StatusNotFound, "File not found"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decode[object](t, rec)["error"])
		})
	}

	// the front-end still owns everything outside /api
	rec := s.do(t, "GET", "/index.html", nil)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}

func TestConfigEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[object](t, rec)
	assert.Equal(t, "米", doc["global_params"].(object)["unit"])
	assert.Equal(t, []any{}, doc["shelves"])

	rec = s.do(t, "POST", "/api/config/global", object{"layer_count": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, object{"status": "success"}, decode[object](t, rec))

	rec = s.do(t, "POST", "/api/config", object{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "POST", "/api/export", nil)
	doc = decode[object](t, rec)
	assert.Equal(t, 7.0, doc["global_params"].(object)["layer_count"])
	assert.Equal(t, 4.0, doc["global_params"].(object)["area_count"])
	assert.Equal(t, "dark", doc["theme"])

	rec = s.do(t, "POST", "/api/config", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", decode[object](t, rec)["error"])
}

func TestImportArchivesPreviousLayout(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/shelves", object{"name": "old"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "POST", "/api/import", object{"shelves": []any{object{"name": "new"}}})
	require.Equal(t, http.StatusOK, rec.Code)

	shelves := decode[[]any](t, s.do(t, "GET", "/api/shelves", nil))
	require.Len(t, shelves, 1)
	assert.Equal(t, "new", shelves[0].(object)["name"])

	snaps := decode[[]object](t, s.do(t, "GET", "/api/config/snapshots", nil))
	require.Len(t, snaps, 1)
	assert.Equal(t, "import", snaps[0]["reason"])
	old := snaps[0]["document"].(object)["shelves"].([]any)
	assert.Equal(t, "old", old[0].(object)["name"])
}

func TestShelfEndpoints(t *testing.T) {
	s := newTestServer(t)

	for i, name := range []string{"A", "B"} {
		rec := s.do(t, "POST", "/api/shelves", object{"name": name})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(i), decode[object](t, rec)["id"])
	}

	rec := s.do(t, "PUT", "/api/shelves/1", object{"cells": []any{object{}, object{}}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "PUT", "/api/shelves/9", object{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid shelf ID", decode[object](t, rec)["error"])

	rec = s.do(t, "DELETE", "/api/shelves/-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stats := decode[object](t, s.do(t, "GET", "/api/statistics", nil))
	assert.Equal(t, 80.0, stats["total_cells"])
	assert.Equal(t, 2.0, stats["occupied_cells"])
	assert.Equal(t, 78.0, stats["free_cells"])
	assert.Equal(t, 0.0, stats["sku_count"])

	rec = s.do(t, "DELETE", "/api/shelves/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shelves := decode[[]any](t, s.do(t, "GET", "/api/shelves", nil))
	require.Len(t, shelves, 1)
	assert.Equal(t, "B", shelves[0].(object)["name"])
}

func TestSKUEndpoints(t *testing.T) {
	s := newTestServer(t)

	sku := s.createSKU(t, object{"name": "Box", "sku_code": "B-1", "length": "1.2"})
	id := sku["id"].(string)
	assert.Equal(t, 1.2, sku["length"])
	assert.Equal(t, 0.3, sku["width"])

	rec := s.do(t, "POST", "/api/skus", object{"name": "Dup", "sku_code": "B-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SKU code already exists: B-1", decode[object](t, rec)["error"])

	rec = s.do(t, "POST", "/api/skus", object{"name": "Bad", "weight": "heavy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.createSKU(t, object{"name": "Crate"})

	rec = s.do(t, "GET", "/api/skus?per_page=1&search=Box", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(HeaderTotalCount))
	list := decode[[]object](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	rec = s.do(t, "GET", "/api/skus", nil)
	assert.Equal(t, "2", rec.Header().Get(HeaderTotalCount))

	assert.Equal(t, 2.0, decode[object](t, s.do(t, "GET", "/api/skus/count", nil))["count"])

	rec = s.do(t, "PUT", "/api/skus/"+id, object{"name": "Big box"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[object](t, rec)["sku"].(object)
	assert.Equal(t, "Big box", updated["name"])
	assert.Equal(t, "B-1", updated["sku_code"])
	assert.Equal(t, 1.2, updated["length"])

	rec = s.do(t, "GET", "/api/skus/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Big box", decode[object](t, rec)["name"])

	rec = s.do(t, "DELETE", "/api/skus/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "GET", "/api/skus/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SKU not found", decode[object](t, rec)["error"])

	rec = s.do(t, "PUT", "/api/skus/"+id, object{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchDelete(t *testing.T) {
	s := newTestServer(t)
	sku := s.createSKU(t, object{"name": "Box"})

	rec := s.do(t, "POST", "/api/skus/batch-delete", object{"ids": []string{sku["id"].(string), "nope1234"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, object{"status": "success", "deleted_count": 1.0}, decode[object](t, rec))

	rec = s.do(t, "POST", "/api/skus/batch-delete", object{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No SKU IDs provided", decode[object](t, rec)["error"])
}

func TestCargoEndpoints(t *testing.T) {
	s := newTestServer(t)
	sku := s.createSKU(t, object{"name": "Box", "sku_code": "B-1"})

	rec := s.do(t, "POST", "/api/cargos", object{"sku_id": sku["id"], "x": 1, "y": 2, "z": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	cargoID := decode[object](t, rec)["id"].(string)

	rec = s.do(t, "POST", "/api/cargos", object{"x": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cargos := decode[[]object](t, s.do(t, "GET", "/api/cargos", nil))
	require.Len(t, cargos, 1)
	assert.Equal(t, 3.0, cargos[0]["z"])
	assert.Equal(t, "B-1", cargos[0]["sku"].(object)["sku_code"])
	assert.Equal(t, 0.5, cargos[0]["sku"].(object)["length"])

	rec = s.do(t, "PUT", "/api/cargos/"+cargoID, object{"x": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	cargos = decode[[]object](t, s.do(t, "GET", "/api/cargos", nil))
	assert.Equal(t, 5.0, cargos[0]["x"])
	assert.Equal(t, 0.0, cargos[0]["z"])

	// the cargo outlives its SKU
	require.Equal(t, http.StatusOK, s.do(t, "DELETE", "/api/skus/"+sku["id"].(string), nil).Code)
	cargos = decode[[]object](t, s.do(t, "GET", "/api/cargos", nil))
	require.Len(t, cargos, 1)
	assert.Equal(t, "", cargos[0]["sku"].(object)["name"])
	assert.Nil(t, cargos[0]["sku"].(object)["length"])

	require.Equal(t, http.StatusOK, s.do(t, "POST", "/api/cargos/clear", nil).Code)
	assert.Empty(t, decode[[]object](t, s.do(t, "GET", "/api/cargos", nil)))

	require.Equal(t, http.StatusOK, s.do(t, "DELETE", "/api/cargos/"+cargoID, nil).Code)
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type part struct {
	field, filename string
	data            []byte
}

func (s *testServer) upload(t *testing.T, path string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, string(p.data)))
			continue
		}
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/api/skus/upload-image", part{"file", "photo.png", pngBytes(t, 300, 300, color.RGBA{0, 128, 0, 255})})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[object](t, rec)
	original := resp["image"].(string)
	thumb := resp["thumbnail"].(string)
	assert.True(t, strings.HasPrefix(original, "sku_") && strings.HasSuffix(original, ".png"))
	assert.Equal(t, strings.TrimSuffix(original, ".png")+"_thumb.jpg", thumb)
	assert.Equal(t, "/static/uploads/sku_images/"+original, resp["image_url"])

	rec = s.do(t, "GET", resp["thumbnail_url"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	cfg, err := imageConfig(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Width)

	rec = s.do(t, "GET", "/static/uploads/sku_images/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func imageConfig(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return cfg, err
}

func TestUploadImageErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/api/skus/upload-image", part{"other", "a.png", []byte("x")})
	assert.Equal(t, "No file part", decode[object](t, rec)["error"])

	rec = s.upload(t, "/api/skus/upload-image", part{field: "file", data: []byte("")})
	assert.Equal(t, "No selected file", decode[object](t, rec)["error"])

	rec = s.upload(t, "/api/skus/upload-image", part{"file", "a.txt", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid file type", decode[object](t, rec)["error"])

	rec = s.do(t, "POST", "/api/skus/upload-image", object{})
	assert.Equal(t, "No file part", decode[object](t, rec)["error"])
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.MaxUploadBytes = 1 << 10 })

	rec := s.upload(t, "/api/skus/upload-image", part{"file", "big.png", bytes.Repeat([]byte{0}, 64<<10)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File too large", decode[object](t, rec)["error"])

	rec = s.upload(t, "/api/skus/upload-textures", part{"texture_top", "big.png", bytes.Repeat([]byte{0}, 64<<10)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File too large", decode[object](t, rec)["error"])
}

func TestUploadImageWithBrokenContentStillSucceeds(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/api/skus/upload-image", part{"file", "broken.jpg", []byte("not really a jpeg")})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[object](t, rec)
	assert.Equal(t, "", resp["thumbnail"])
	assert.NotContains(t, resp, "thumbnail_url")
}

func TestUploadTextures(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "/api/skus/upload-textures",
		part{"texture_front", "f.png", pngBytes(t, 50, 50, color.RGBA{200, 0, 0, 255})},
		part{"texture_top", "t.bmp", []byte("x")},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[object](t, rec)
	textures := resp["textures"].(object)
	require.Len(t, textures, 1)
	assert.True(t, strings.HasPrefix(textures["texture_front"].(string), "sku_tex_front_"))

	composite := resp["composite_thumbnail"].(string)
	exists, err := s.blobs.Exists(context.Background(), storage.Key(storage.AreaThumbnails, composite))
	require.NoError(t, err)
	assert.True(t, exists)

	rec = s.upload(t, "/api/skus/upload-textures", part{"texture_top", "t.bmp", []byte("x")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No valid texture files uploaded", decode[object](t, rec)["error"])
}

func TestLabelsAndQRCode(t *testing.T) {
	s := newTestServer(t)
	sku := s.createSKU(t, object{"name": "Box", "sku_code": "B-1"})
	id := sku["id"].(string)

	rec := s.do(t, "POST", "/api/skus/labels", object{"ids": []string{id, "missing1"}, "cols": 2, "rows": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, "POST", "/api/skus/labels", object{"ids": []string{"missing1"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/skus/"+id+"/qrcode?size=128", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, err := imageConfig(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Width)

	rec = s.do(t, "GET", "/api/skus/missing1/qrcode", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createSKU(t, object{"name": "Box"})

	rec := s.do(t, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `eckshelf_catalog_mutations_total{entity="sku",operation="create"} 1`)
	assert.Contains(t, body, `path="/api/skus"`)
}
