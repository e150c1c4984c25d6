package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigSnapshot archives a warehouse layout document before it is replaced
type ConfigSnapshot struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Reason    string         `gorm:"type:varchar(32);not null" json:"reason"`
	Document  datatypes.JSON `json:"document"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (ConfigSnapshot) TableName() string { return "config_snapshots" }
