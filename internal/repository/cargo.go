package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/models"
	"github.com/xelth-com/eckshelf/internal/utils"
)

// CargoRepository manages placed cargo instances
type CargoRepository struct {
	db    *gorm.DB
	now   func() time.Time
	newID func() string
}

// NewCargoRepository creates a repository
func NewCargoRepository(db *gorm.DB) *CargoRepository {
	return &CargoRepository{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: utils.ShortID,
	}
}

const cargoWithSKUQuery = `
SELECT c.id, c.sku_id, c.x, c.y, c.z, c.rotation, c.created_at,
       s.name AS sku_name, s.sku_code AS sku_code,
       s.length AS sku_length, s.width AS sku_width, s.height AS sku_height, s.weight AS sku_weight,
       s.thumbnail AS sku_thumbnail,
       s.texture_top AS sku_texture_top, s.texture_bottom AS sku_texture_bottom,
       s.texture_front AS sku_texture_front, s.texture_back AS sku_texture_back,
       s.texture_left AS sku_texture_left, s.texture_right AS sku_texture_right
FROM cargos c
LEFT JOIN skus s ON c.sku_id = s.id
ORDER BY c.created_at DESC`

// cargoRow is one row of cargoWithSKUQuery. SKU columns are nullable because
// the join tolerates dangling sku_id values.
type cargoRow struct {
	ID               string          `gorm:"column:id"`
	SKUID            string          `gorm:"column:sku_id"`
	X                float64         `gorm:"column:x"`
	Y                float64         `gorm:"column:y"`
	Z                float64         `gorm:"column:z"`
	Rotation         float64         `gorm:"column:rotation"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	SKUName          sql.NullString  `gorm:"column:sku_name"`
	SKUCode          sql.NullString  `gorm:"column:sku_code"`
	SKULength        sql.NullFloat64 `gorm:"column:sku_length"`
	SKUWidth         sql.NullFloat64 `gorm:"column:sku_width"`
	SKUHeight        sql.NullFloat64 `gorm:"column:sku_height"`
	SKUWeight        sql.NullFloat64 `gorm:"column:sku_weight"`
	SKUThumbnail     sql.NullString  `gorm:"column:sku_thumbnail"`
	SKUTextureTop    sql.NullString  `gorm:"column:sku_texture_top"`
	SKUTextureBottom sql.NullString  `gorm:"column:sku_texture_bottom"`
	SKUTextureFront  sql.NullString  `gorm:"column:sku_texture_front"`
	SKUTextureBack   sql.NullString  `gorm:"column:sku_texture_back"`
	SKUTextureLeft   sql.NullString  `gorm:"column:sku_texture_left"`
	SKUTextureRight  sql.NullString  `gorm:"column:sku_texture_right"`
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (row cargoRow) toModel() models.CargoWithSKU {
	return models.CargoWithSKU{
		Cargo: models.Cargo{
			ID:        row.ID,
			SKUID:     row.SKUID,
			X:         row.X,
			Y:         row.Y,
			Z:         row.Z,
			Rotation:  row.Rotation,
			CreatedAt: row.CreatedAt,
		},
		SKU: models.CargoSKU{
			Name:          row.SKUName.String,
			SKUCode:       row.SKUCode.String,
			Length:        nullFloat(row.SKULength),
			Width:         nullFloat(row.SKUWidth),
			Height:        nullFloat(row.SKUHeight),
			Weight:        nullFloat(row.SKUWeight),
			Thumbnail:     row.SKUThumbnail.String,
			TextureTop:    row.SKUTextureTop.String,
			TextureBottom: row.SKUTextureBottom.String,
			TextureFront:  row.SKUTextureFront.String,
			TextureBack:   row.SKUTextureBack.String,
			TextureLeft:   row.SKUTextureLeft.String,
			TextureRight:  row.SKUTextureRight.String,
		},
	}
}

// ListWithSKU returns all cargos newest first, each with its SKU's display
// fields
func (r *CargoRepository) ListWithSKU(ctx context.Context) ([]models.CargoWithSKU, error) {
	var rows []cargoRow
	if err := r.db.WithContext(ctx).Raw(cargoWithSKUQuery).Scan(&rows).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	cargos := make([]models.CargoWithSKU, 0, len(rows))
	for _, row := range rows {
		cargos = append(cargos, row.toModel())
	}
	return cargos, nil
}

// position reads x, y, z and rotation, each defaulting to 0
func position(fields Fields) (x, y, z, rotation float64, err error) {
	if x, err = fields.Float("x", 0); err != nil {
		return
	}
	if y, err = fields.Float("y", 0); err != nil {
		return
	}
	if z, err = fields.Float("z", 0); err != nil {
		return
	}
	rotation, err = fields.Float("rotation", 0)
	return
}

// Create places a cargo and returns its id. sku_id is not checked against the
// catalog.
func (r *CargoRepository) Create(ctx context.Context, fields Fields) (string, error) {
	skuID, err := fields.String("sku_id", "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(skuID) == "" {
		return "", apperrors.BadRequest("sku_id is required")
	}
	x, y, z, rotation, err := position(fields)
	if err != nil {
		return "", err
	}

	cargo := models.Cargo{
		ID:        r.newID(),
		SKUID:     skuID,
		X:         x,
		Y:         y,
		Z:         z,
		Rotation:  rotation,
		CreatedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(&cargo).Error; err != nil {
		return "", apperrors.Internal(err)
	}
	return cargo.ID, nil
}

// Update replaces the position and rotation of a cargo. Omitted coordinates
// become 0. Updating an unknown id is not an error.
func (r *CargoRepository) Update(ctx context.Context, id string, fields Fields) error {
	x, y, z, rotation, err := position(fields)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Model(&models.Cargo{}).Where("id = ?", id).Updates(map[string]any{
		"x":        x,
		"y":        y,
		"z":        z,
		"rotation": rotation,
	}).Error
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Delete removes a cargo if present
func (r *CargoRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Cargo{}).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// ClearAll removes every cargo
func (r *CargoRepository) ClearAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Cargo{}).Error; err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
