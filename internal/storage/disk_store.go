package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"contacthub/api/internal/config"
)

type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(cfg config.StorageConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.AvatarDir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &DiskStore{
		dir:     cfg.AvatarDir,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *DiskStore) Save(_ context.Context, name string, tempPath string) (string, error) {
	dest := filepath.Join(s.dir, name)

	if err := os.Rename(tempPath, dest); err != nil {
		// temp dir may live on another filesystem
		if err := copyFile(tempPath, dest); err != nil {
			return "", fmt.Errorf("move avatar: %w", err)
		}
		_ = os.Remove(tempPath)
	}

	s.removeStaleSiblings(name)

	return fmt.Sprintf("%s/avatars/%s", s.baseURL, name), nil
}

// removeStaleSiblings deletes earlier avatars for the same user that
// were stored under a different extension, keeping at most one file
// per user in the directory.
func (s *DiskStore) removeStaleSiblings(name string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	matches, err := filepath.Glob(filepath.Join(s.dir, base+".*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		if filepath.Base(match) == name {
			continue
		}
		_ = os.Remove(match)
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
