package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	sweepInterval = 30 * time.Minute
	initialDelay  = 1 * time.Minute
)

// RetentionService removes transcript files older than the configured
// retention window. Transcripts are session artifacts; the extracted
// reservations live in the store, so old files can go.
type RetentionService struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewRetentionService creates a new retention service sweeping the given
// directory.
func NewRetentionService(dir string, retention time.Duration, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		dir:       dir,
		retention: retention,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background sweep process
func (s *RetentionService) Start() {
	go s.sweepLoop()
	s.logger.Info("Transcript retention service started",
		zap.String("dir", s.dir),
		zap.Duration("retention", s.retention))
}

// Stop gracefully stops the retention service
func (s *RetentionService) Stop() {
	close(s.stopChan)
	s.logger.Info("Transcript retention service stopped")
}

func (s *RetentionService) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	initialTimer := time.NewTimer(initialDelay)
	defer initialTimer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-initialTimer.C:
			s.Sweep()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep deletes expired transcript files and returns how many were removed.
func (s *RetentionService) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to read transcript directory", zap.Error(err))
		return 0
	}

	cutoff := time.Now().Add(-s.retention)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !isTranscriptFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to remove expired transcript",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("Expired transcripts removed", zap.Int("count", removed))
	}
	return removed
}

// isTranscriptFile matches the artifacts the logger writes: the running
// text transcript, its bilingual companion, and the JSON export.
func isTranscriptFile(name string) bool {
	if !strings.HasPrefix(name, "hotel_conversation_") {
		return false
	}
	return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".json")
}
