package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/models"
	"github.com/xelth-com/eckshelf/internal/storage"
	"github.com/xelth-com/eckshelf/internal/utils"
)

// DefaultPerPage is the SKU page size when the caller gives none
const DefaultPerPage = 100

// ListParams selects a page of SKUs
type ListParams struct {
	Page    int
	PerPage int
	Search  string
}

// SKUPage is one page of SKUs plus the number of rows matching the search
type SKUPage struct {
	Items   []models.SKU
	Total   int64
	Page    int
	PerPage int
}

// SKURepository manages the skus table and the image files SKU rows point to
type SKURepository struct {
	db    *gorm.DB
	blobs storage.Store
	log   *slog.Logger
	now   func() time.Time
	newID func() string
}

// NewSKURepository creates a repository. blobs is used to remove a deleted
// SKU's image and thumbnail.
func NewSKURepository(db *gorm.DB, blobs storage.Store, log *slog.Logger) *SKURepository {
	return &SKURepository{
		db:    db,
		blobs: blobs,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		newID: utils.ShortID,
	}
}

func errSKUNotFound() error {
	return apperrors.NotFound("SKU not found")
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// List returns SKUs newest first, optionally filtered by a substring of the
// name or code
func (r *SKURepository) List(ctx context.Context, p ListParams) (*SKUPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}

	query := r.db.WithContext(ctx).Model(&models.SKU{})
	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		query = query.Where("name LIKE ? OR sku_code LIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	items := []models.SKU{}
	err := query.Order("created_at DESC").
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &SKUPage{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage}, nil
}

// Count returns the number of SKUs
func (r *SKURepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SKU{}).Count(&count).Error; err != nil {
		return 0, apperrors.Internal(err)
	}
	return count, nil
}

// Get returns one SKU
func (r *SKURepository) Get(ctx context.Context, id string) (*models.SKU, error) {
	var sku models.SKU
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&sku).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errSKUNotFound()
		}
		return nil, apperrors.Internal(err)
	}
	return &sku, nil
}

// maxIDAttempts bounds how often a colliding generated id is redrawn
const maxIDAttempts = 3

// Create inserts a SKU. A blank sku_code becomes "SKU-<id>".
func (r *SKURepository) Create(ctx context.Context, fields Fields) (*models.SKU, error) {
	now := r.now()
	sku := models.SKU{
		Length:    models.DefaultLength,
		Width:     models.DefaultWidth,
		Height:    models.DefaultHeight,
		Weight:    models.DefaultWeight,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applySKUFields(&sku, fields); err != nil {
		return nil, err
	}
	sku.SKUCode = strings.TrimSpace(sku.SKUCode)
	generatedCode := sku.SKUCode == ""

	for attempt := 1; ; attempt++ {
		sku.ID = r.newID()
		if generatedCode {
			sku.SKUCode = "SKU-" + sku.ID
		}

		err := r.db.WithContext(ctx).Create(&sku).Error
		if err == nil {
			return &sku, nil
		}
		if !isDuplicateKey(err) {
			return nil, apperrors.Internal(err)
		}
		// the unique violation is either the primary key or sku_code
		taken, lookupErr := r.idExists(ctx, sku.ID)
		if lookupErr != nil {
			return nil, apperrors.Internal(lookupErr)
		}
		if !taken {
			return nil, apperrors.Conflict("SKU code already exists: %s", sku.SKUCode)
		}
		if attempt == maxIDAttempts {
			return nil, apperrors.Internal(fmt.Errorf("no free SKU id after %d attempts", attempt))
		}
		r.log.Warn("generated SKU id already in use, retrying", "id", sku.ID)
	}
}

func (r *SKURepository) idExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SKU{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Update overwrites the supplied fields of a SKU; everything else keeps its
// stored value
func (r *SKURepository) Update(ctx context.Context, id string, fields Fields) (*models.SKU, error) {
	sku, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applySKUFields(sku, fields); err != nil {
		return nil, err
	}
	if fields.Has("sku_code") {
		sku.SKUCode = strings.TrimSpace(sku.SKUCode)
		if sku.SKUCode == "" {
			sku.SKUCode = "SKU-" + sku.ID
		}
	}
	sku.UpdatedAt = r.now()

	if err := r.db.WithContext(ctx).Save(sku).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("SKU code already exists: %s", sku.SKUCode)
		}
		return nil, apperrors.Internal(err)
	}
	return sku, nil
}

// Delete removes a SKU and, best effort, its image and thumbnail files.
// Cargos referencing the SKU are left in place.
func (r *SKURepository) Delete(ctx context.Context, id string) error {
	sku, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.SKU{}).Error; err != nil {
		return apperrors.Internal(err)
	}
	r.removeFiles(ctx, sku)
	return nil
}

// BatchDelete removes every existing SKU in ids and returns how many were
// deleted. Unknown ids are skipped.
func (r *SKURepository) BatchDelete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.BadRequest("No SKU IDs provided")
	}

	var deleted []models.SKU
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			var sku models.SKU
			if err := tx.Where("id = ?", id).Take(&sku).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if err := tx.Where("id = ?", id).Delete(&models.SKU{}).Error; err != nil {
				return err
			}
			deleted = append(deleted, sku)
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Internal(err)
	}

	// files go only after the rows are committed
	for i := range deleted {
		r.removeFiles(ctx, &deleted[i])
	}
	return len(deleted), nil
}

func (r *SKURepository) removeFiles(ctx context.Context, sku *models.SKU) {
	if r.blobs == nil {
		return
	}
	files := []struct{ area, name string }{
		{storage.AreaImages, sku.Image},
		{storage.AreaThumbnails, sku.Thumbnail},
	}
	for _, f := range files {
		if f.name == "" || storage.ValidFilename(f.name) != nil {
			continue
		}
		if err := r.blobs.Delete(ctx, storage.Key(f.area, f.name)); err != nil {
			r.log.Warn("failed to remove SKU file", "sku_id", sku.ID, "file", f.name, "error", err)
		}
	}
}

type stringField struct {
	key string
	dst *string
}

type floatField struct {
	key string
	dst *float64
}

// applySKUFields copies the supplied request fields onto sku
func applySKUFields(sku *models.SKU, fields Fields) error {
	strs := []stringField{
		{"name", &sku.Name},
		{"sku_code", &sku.SKUCode},
		{"image", &sku.Image},
		{"thumbnail", &sku.Thumbnail},
	}
	for _, face := range models.Faces {
		strs = append(strs, stringField{"texture_" + face, sku.TexturePtr(face)})
	}
	nums := []floatField{
		{"length", &sku.Length},
		{"width", &sku.Width},
		{"height", &sku.Height},
		{"weight", &sku.Weight},
	}

	var err error
	for _, f := range strs {
		if *f.dst, err = fields.String(f.key, *f.dst); err != nil {
			return err
		}
	}
	for _, f := range nums {
		if *f.dst, err = fields.Float(f.key, *f.dst); err != nil {
			return err
		}
	}
	return nil
}
