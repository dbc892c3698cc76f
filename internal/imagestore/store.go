// Package imagestore stages downloaded images on local disk for the
// duration of one diagnosis.
package imagestore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const stagedExt = ".jpg"

// Store writes each staged image to a uniquely named file under dir.
// Uniqueness comes from the generated name, so concurrent saves need no
// locking.
type Store struct {
	logger *slog.Logger
	dir    string
}

// New creates the staging directory if needed and returns a Store over it.
func New(log *slog.Logger, dir string) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("imagestore: dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: create dir: %w", err)
	}
	return &Store{
		logger: log.With(slog.String("component", "imagestore")),
		dir:    dir,
	}, nil
}

// Save streams r into a new uniquely named file and returns its path along
// with a cleanup func that removes it. The caller must invoke cleanup on
// every exit path; the file is already removed when Save itself fails.
func (s *Store) Save(r io.Reader) (string, func(), error) {
	path := filepath.Join(s.dir, uuid.NewString()+stagedExt)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("create staged file: %w", err)
	}
	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		s.remove(path)
		if copyErr != nil {
			return "", nil, fmt.Errorf("write staged file: %w", copyErr)
		}
		return "", nil, fmt.Errorf("close staged file: %w", closeErr)
	}
	cleanup := func() { s.remove(path) }
	return path, cleanup, nil
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove staged file failed", slog.String("path", path), slog.Any("error", err))
	}
}

// Sweep removes staged files older than maxAge. It exists to reclaim
// orphans left by a crash between Save and cleanup; in normal operation
// every file is removed by its own cleanup func.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), stagedExt) {
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
			if !os.IsNotExist(err) {
				s.logger.Warn("sweep remove failed", slog.String("path", path), slog.Any("error", err))
			}
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("swept staged files", slog.Int("removed", removed))
	}
	return removed, nil
}
