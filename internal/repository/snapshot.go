package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckshelf/internal/apperrors"
	"github.com/xelth-com/eckshelf/internal/models"
)

// SnapshotReasonImport marks a layout archived before an import replaced it
const SnapshotReasonImport = "import"

// SnapshotRepository archives previous versions of the layout document
type SnapshotRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSnapshotRepository creates a repository
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores doc as a snapshot
func (r *SnapshotRepository) Create(ctx context.Context, reason string, doc any) (*models.ConfigSnapshot, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("encode snapshot: %w", err))
	}
	snap := models.ConfigSnapshot{
		Reason:    reason,
		Document:  datatypes.JSON(data),
		CreatedAt: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(&snap).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &snap, nil
}

// List returns the most recent snapshots, newest first
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]models.ConfigSnapshot, error) {
	if limit < 1 {
		limit = 20
	}
	snaps := []models.ConfigSnapshot{}
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&snaps).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return snaps, nil
}
