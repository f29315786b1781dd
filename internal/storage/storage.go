package storage

import (
	"context"
	"fmt"

	"contacthub/api/internal/config"
)

// AvatarStore relocates a finished avatar from temp storage into its
// permanent home and returns the public URL. The name is keyed by user
// id, so saving overwrites any previous avatar for that user.
type AvatarStore interface {
	Save(ctx context.Context, name string, tempPath string) (string, error)
}

func New(cfg config.StorageConfig) (AvatarStore, error) {
	switch cfg.Driver {
	case "", "disk":
		return NewDiskStore(cfg)
	case "s3":
		return NewObjectStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
