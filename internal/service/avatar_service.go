package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"contacthub/api/internal/media"
	"contacthub/api/internal/storage"
)

const avatarSize = 250

// AvatarService runs the upload pipeline: normalize the temp file,
// relocate it under a user-id keyed name, persist the new reference.
// The steps are sequential and non-transactional; a crash in between
// leaves at worst an orphaned temp file for the sweeper.
type AvatarService struct {
	users UserStore
	store storage.AvatarStore
	log   zerolog.Logger
}

func NewAvatarService(users UserStore, store storage.AvatarStore, log zerolog.Logger) *AvatarService {
	return &AvatarService{
		users: users,
		store: store,
		log:   log,
	}
}

// Process finishes an upload already written to tempPath and returns
// the new avatar URL. A resize failure is logged and skipped; the
// original file is relocated as-is.
func (s *AvatarService) Process(ctx context.Context, userID string, tempPath string, originalName string) (string, error) {
	if _, err := media.DetectFile(tempPath); err != nil {
		return "", fmt.Errorf("detect upload: %w", err)
	}

	if err := media.ResizeSquare(tempPath, avatarSize); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("avatar resize failed, keeping original")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}
	name := userID + ext

	url, err := s.store.Save(ctx, name, tempPath)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", fmt.Errorf("persist avatar url: %w", err)
	}

	return url, nil
}
