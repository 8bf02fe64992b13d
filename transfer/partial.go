package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Staging file retention. Partials older than the retention window are
// swept so abandoned uploads do not accumulate on disk.
const (
	PartialRetention = time.Hour
	SweepInterval    = 5 * time.Minute
)

// PartialManager owns the staging directory where in-flight uploads are
// appended before completion. Each transfer stages to {dir}/{id}.part.
type PartialManager struct {
	dir string
}

// NewPartialManager creates a manager staging under storagePath/partial.
// The directory is created lazily by EnsureDir.
func NewPartialManager(storagePath string) *PartialManager {
	return &PartialManager{dir: filepath.Join(storagePath, "partial")}
}

// EnsureDir creates the staging directory if it does not exist.
func (m *PartialManager) EnsureDir() error {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	return nil
}

// TempPath returns the staging path for a transfer id. The id must have
// been checked with ValidTransferID first.
func (m *PartialManager) TempPath(transferID string) string {
	return filepath.Join(m.dir, transferID+".part")
}

// PartialSize returns the number of bytes already staged for the transfer,
// or zero if no staging file exists.
func (m *PartialManager) PartialSize(transferID string) uint64 {
	info, err := os.Stat(m.TempPath(transferID))
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}

// OpenAppend opens the staging file for appending, creating it if needed.
func (m *PartialManager) OpenAppend(transferID string) (*os.File, error) {
	f, err := os.OpenFile(m.TempPath(transferID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open staging file: %w", err)
	}
	return f, nil
}

// TruncateTo shrinks the staging file to the given size before a resume
// below the staged length.
func (m *PartialManager) TruncateTo(transferID string, size uint64) error {
	if err := os.Truncate(m.TempPath(transferID), int64(size)); err != nil {
		return fmt.Errorf("failed to truncate staging file: %w", err)
	}
	return nil
}

// ReadComplete reads back the full staging file after EndOfData.
func (m *PartialManager) ReadComplete(transferID string) ([]byte, error) {
	data, err := os.ReadFile(m.TempPath(transferID))
	if err != nil {
		return nil, fmt.Errorf("failed to read staging file: %w", err)
	}
	return data, nil
}

// Remove deletes the staging file. A missing file is not an error.
func (m *PartialManager) Remove(transferID string) {
	if err := os.Remove(m.TempPath(transferID)); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{
			"function":    "Remove",
			"transfer_id": transferID,
			"error":       err,
		}).Warn("Failed to remove staging file")
	}
}

// SweepStale removes staging files whose last modification is older than
// maxAge and returns the number removed.
func (m *PartialManager) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".part") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "SweepStale",
				"path":     path,
				"error":    err,
			}).Warn("Failed to remove stale partial")
			continue
		}
		removed++
	}
	if removed > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "SweepStale",
			"removed":  removed,
		}).Info("Swept stale partial uploads")
	}
	return removed, nil
}

// StartSweeper runs periodic stale-partial sweeps until the context is
// cancelled.
func (m *PartialManager) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.SweepStale(maxAge); err != nil {
					logrus.WithFields(logrus.Fields{
						"function": "StartSweeper",
						"error":    err,
					}).Warn("Stale partial sweep failed")
				}
			}
		}
	}()
}

// ValidTransferID reports whether an id received from the wire is safe to
// embed in a staging path. Path separators and parent references are
// rejected outright.
func ValidTransferID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return false
	}
	return true
}
