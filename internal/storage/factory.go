package storage

import (
	"context"
	"fmt"

	"github.com/xelth-com/eckshelf/internal/config"
)

// New builds the blob store selected by the configuration
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Driver {
	case config.BlobFilesystem, "":
		return NewFSStore(cfg.UploadDir)
	case config.BlobS3:
		return NewS3Store(ctx, S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
