package models

import "time"

// Faces lists the six box faces a SKU can carry a texture for, in the order
// the front-end uploads them.
var Faces = []string{"top", "bottom", "front", "back", "left", "right"}

// Default physical attributes for a new SKU (meters / kilograms)
const (
	DefaultLength = 0.5
	DefaultWidth  = 0.3
	DefaultHeight = 0.2
	DefaultWeight = 1.0
)

// SKU is a product type that can be placed as cargo in the 3D warehouse
type SKU struct {
	ID      string  `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name    string  `gorm:"not null;index:idx_sku_name" json:"name"`
	SKUCode string  `gorm:"column:sku_code;type:varchar(255);uniqueIndex:idx_sku_code" json:"sku_code"`
	Length  float64 `json:"length"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`

	// Filenames inside the image / thumbnail storage areas
	Image     string `gorm:"not null;default:''" json:"image"`
	Thumbnail string `gorm:"not null;default:''" json:"thumbnail"`

	TextureTop    string `gorm:"not null;default:''" json:"texture_top"`
	TextureBottom string `gorm:"not null;default:''" json:"texture_bottom"`
	TextureFront  string `gorm:"not null;default:''" json:"texture_front"`
	TextureBack   string `gorm:"not null;default:''" json:"texture_back"`
	TextureLeft   string `gorm:"not null;default:''" json:"texture_left"`
	TextureRight  string `gorm:"not null;default:''" json:"texture_right"`

	CreatedAt time.Time `gorm:"autoCreateTime:false;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (SKU) TableName() string { return "skus" }

// TexturePtr returns the field holding the texture for a face, or nil for an
// unknown face.
func (s *SKU) TexturePtr(face string) *string {
	switch face {
	case "top":
		return &s.TextureTop
	case "bottom":
		return &s.TextureBottom
	case "front":
		return &s.TextureFront
	case "back":
		return &s.TextureBack
	case "left":
		return &s.TextureLeft
	case "right":
		return &s.TextureRight
	}
	return nil
}
