package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tpn/displaylauncher/internal/adapter/metrics"
	apperrors "github.com/tpn/displaylauncher/internal/platform/errors"
)

const (
	DefaultRetention    = 10 * time.Minute
	DefaultCleanupDelay = 5 * time.Second

	artifactPrefix = "uploaded_"
	artifactExt    = ".apk"

	removeReasonFailed    = "dispatch_failed"
	removeReasonDelivered = "delivered"
	removeReasonSweep     = "sweep"
)

// Stager owns the scratch directory for uploaded archives. Every upload gets
// its own file, so concurrent uploads need no locking.
type Stager struct {
	dir          string
	retention    time.Duration
	cleanupDelay time.Duration
	clock        clockwork.Clock
	metrics      *metrics.GatewayMetrics
}

func NewStager(dir string, retention, cleanupDelay time.Duration, clock clockwork.Clock, m *metrics.GatewayMetrics) (*Stager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "displaylauncher-apk")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	if cleanupDelay <= 0 {
		cleanupDelay = DefaultCleanupDelay
	}
	return &Stager{
		dir:          dir,
		retention:    retention,
		cleanupDelay: cleanupDelay,
		clock:        clock,
		metrics:      m,
	}, nil
}

func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies src into a new artifact named after the upload time and returns
// its path. Stale artifacts are swept first.
func (s *Stager) Stage(ctx context.Context, src io.Reader) (string, error) {
	s.Sweep(ctx)

	name := fmt.Sprintf("%s%d_%s%s", artifactPrefix, s.clock.Now().UnixMilli(), uuid.NewString()[:8], artifactExt)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", apperrors.IOError("failed to create staged file", err).WithField("path", path)
	}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", apperrors.IOError("failed to write staged file", err).WithField("path", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", apperrors.IOError("failed to write staged file", err).WithField("path", path)
	}

	s.metrics.Staged()
	slog.DebugContext(ctx, "Staged upload", "path", path)
	return path, nil
}

// Remove deletes a staged artifact. Paths outside the staging directory are ignored.
func (s *Stager) Remove(ctx context.Context, path, reason string) {
	if !s.owns(path) {
		slog.WarnContext(ctx, "Refusing to remove file outside staging directory", "path", path)
		return
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.DebugContext(ctx, "Failed to remove staged file", "path", path, "error", err)
		}
		return
	}
	s.metrics.Removed(reason, 1)
}

// RemoveAfterDelay schedules removal once the platform had time to read the archive.
func (s *Stager) RemoveAfterDelay(ctx context.Context, path string) {
	ctx = context.WithoutCancel(ctx)
	s.clock.AfterFunc(s.cleanupDelay, func() {
		s.Remove(ctx, path, removeReasonDelivered)
	})
}

// Sweep deletes artifacts older than the retention window and returns how many
// were removed. Files that vanish or cannot be read mid-sweep are skipped.
func (s *Stager) Sweep(ctx context.Context) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		slog.DebugContext(ctx, "Sweep could not read staging directory", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := s.clock.Now().Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			slog.DebugContext(ctx, "Sweep failed to remove file", "file", entry.Name(), "error", err)
			continue
		}
		removed++
	}

	s.metrics.Removed(removeReasonSweep, removed)
	return removed
}

func (s *Stager) owns(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == filepath.Clean(s.dir) && isArtifact(filepath.Base(path))
}

func isArtifact(name string) bool {
	return strings.HasPrefix(name, artifactPrefix) && strings.HasSuffix(name, artifactExt)
}
