package wizard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MediaStore stages preview files for wizard drafts. The lifetime rule
// mirrors object-URL hygiene in the browser build: at most one live
// file per slot, the predecessor is removed before a replacement is
// written, everything is removed when the draft is discarded.
type MediaStore struct {
	logger *slog.Logger
	dir    string
}

// Slots a draft can stage media into.
const (
	SlotAudio      = "audio"
	SlotAvatar     = "avatar"
	SlotBackground = "background"
)

func NewMediaStore(logger *slog.Logger, dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{logger: logger, dir: dir}, nil
}

// Stage writes a new preview file for the given draft slot, removing
// the previous file for that slot first. Returns the staged path.
func (m *MediaStore) Stage(draftID, slot, filename string, r io.Reader) (string, error) {
	prev := m.slotPathPrefix(draftID, slot)
	matches, _ := filepath.Glob(prev + "*")
	for _, old := range matches {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove superseded preview", "path", old, "error", err)
		}
	}

	path := prev + sanitizeFileName(filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create preview file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write preview file: %w", err)
	}
	return path, nil
}

// Remove deletes a single staged file. Missing files are fine.
func (m *MediaStore) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("failed to remove preview", "path", path, "error", err)
	}
}

// RemoveAll deletes every staged file belonging to the draft and blanks
// the path fields.
func (m *MediaStore) RemoveAll(d *Draft) {
	m.Remove(d.AudioPath)
	m.Remove(d.AvatarPath)
	m.Remove(d.BackgroundPath)
	d.AudioPath, d.AvatarPath, d.BackgroundPath = "", "", ""
}

// StartCleanupLoop sweeps abandoned preview files older than ttl.
func (m *MediaStore) StartCleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup(ttl)
			}
		}
	}()
}

func (m *MediaStore) cleanup(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Warn("media cleanup could not list dir", "error", err)
		return
	}

	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		m.logger.Info("media cleanup completed", "removed_files", removed)
	}
}

func (m *MediaStore) slotPathPrefix(draftID, slot string) string {
	return filepath.Join(m.dir, draftID+"_"+slot+"_")
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload.bin"
	}
	return name
}
