package jobs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper periodically deletes stale files from the upload temp dir.
// The avatar pipeline is not transactional, so a crash between resize
// and relocation can leave a temp file behind; the sweep bounds that
// leak.
type Sweeper struct {
	cron    *cron.Cron
	tempDir string
	maxAge  time.Duration
	spec    string
	log     zerolog.Logger
}

func NewSweeper(tempDir string, spec string, maxAge time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cron:    cron.New(cron.WithSeconds()),
		tempDir: tempDir,
		maxAge:  maxAge,
		spec:    spec,
		log:     log,
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Sweeper) sweep() {
	removed, err := s.SweepOnce(time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("temp sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("temp files swept")
	}
}

// SweepOnce removes regular files in the temp dir older than maxAge,
// relative to now, and reports how many were deleted.
func (s *Sweeper) SweepOnce(now time.Time) (int, error) {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < s.maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.tempDir, entry.Name())); err != nil {
			s.log.Warn().Err(err).Str("file", entry.Name()).Msg("temp file removal failed")
			continue
		}
		removed++
	}
	return removed, nil
}
