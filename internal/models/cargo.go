package models

import "time"

// Cargo is a placed instance of a SKU. SKUID is a soft reference: deleting
// the SKU leaves the cargo in place.
type Cargo struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	SKUID     string    `gorm:"column:sku_id;type:varchar(32);not null;index:idx_cargo_sku" json:"sku_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Rotation  float64   `json:"rotation"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index" json:"created_at"`
}

func (Cargo) TableName() string { return "cargos" }

// CargoSKU holds the SKU display fields denormalized onto a cargo listing.
// Numeric fields are nil when the referenced SKU no longer exists.
type CargoSKU struct {
	Name          string   `json:"name"`
	SKUCode       string   `json:"sku_code"`
	Length        *float64 `json:"length"`
	Width         *float64 `json:"width"`
	Height        *float64 `json:"height"`
	Weight        *float64 `json:"weight"`
	Thumbnail     string   `json:"thumbnail"`
	TextureTop    string   `json:"texture_top"`
	TextureBottom string   `json:"texture_bottom"`
	TextureFront  string   `json:"texture_front"`
	TextureBack   string   `json:"texture_back"`
	TextureLeft   string   `json:"texture_left"`
	TextureRight  string   `json:"texture_right"`
}

// CargoWithSKU is a cargo row joined with its SKU
type CargoWithSKU struct {
	Cargo
	SKU CargoSKU `json:"sku"`
}
