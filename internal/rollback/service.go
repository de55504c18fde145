// Package rollback preserves prior application versions and stages rollback
// instructions consumed on the next launch.
//
// Preserved versions live under <storage root>/versions/v<version>/ as plain
// file trees, not JSON documents; this package is the sole owner of that
// subtree. The metadata list and the pending-rollback instruction are
// ordinary store documents.
package rollback

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrVersionNotFound indicates no preserved copy exists for the version.
	ErrVersionNotFound = errors.New("rollback: version not preserved")
	// ErrInvalidVersion indicates the version string failed validation.
	ErrInvalidVersion = errors.New("rollback: invalid version string")
)

// DefaultRetention bounds how many prior versions are kept.
const DefaultRetention = 3

// markerName is the marker document inside each preserved directory.
const markerName = ".app-version"

// versionPattern accepts semantic versions with an optional leading "v" and
// pre-release suffix. Everything else, path traversal included, is rejected
// before any filesystem access.
var versionPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// Metadata describes one preserved prior version.
type Metadata struct {
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	PreservedAt time.Time `json:"preservedAt"`
	SizeBytes   int64     `json:"sizeBytes"`
}

// Pending is the staged rollback instruction consumed on next launch.
type Pending struct {
	TargetVersion string    `json:"targetVersion"`
	SourcePath    string    `json:"sourcePath"`
	RequestedAt   time.Time `json:"requestedAt"`
}

type marker struct {
	Version     string    `json:"version"`
	Platform    string    `json:"platform"`
	Arch        string    `json:"arch"`
	PreservedAt time.Time `json:"preservedAt"`
}

// Service preserves versions and stages rollbacks.
type Service struct {
	store     *storage.Store
	log       *logging.Logger
	retention int
}

// NewService creates the preservation service. retention <= 0 selects
// DefaultRetention.
func NewService(store *storage.Store, retention int, log *logging.Logger) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		store:     store,
		log:       logging.OrNop(log).Named("rollback"),
		retention: retention,
	}
}

// VersionDir returns the preservation directory for a version.
func (s *Service) VersionDir(version string) string {
	return filepath.Join(s.store.Root(), "versions", "v"+strings.TrimPrefix(version, "v"))
}

// KeepPreviousVersion preserves the given version: creates its directory,
// writes the platform marker, records metadata, then evicts the oldest
// preserved versions beyond the retention bound. Eviction failures are
// logged, never fatal.
func (s *Service) KeepPreviousVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	version = strings.TrimPrefix(version, "v")

	dir := s.VersionDir(version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create version dir: %w", err)
	}

	if err := s.writeMarker(dir, version); err != nil {
		return err
	}

	size, err := dirSize(dir)
	if err != nil {
		s.log.Warn("failed to size version dir", zap.String("dir", dir), zap.Error(err))
	}

	list, err := s.List()
	if err != nil {
		return err
	}

	// Re-preserving a version replaces its entry; the list stays ordered
	// newest-preserved first.
	kept := list[:0]
	for _, m := range list {
		if m.Version != version {
			kept = append(kept, m)
		}
	}
	list = append([]Metadata{{
		Version:     version,
		Path:        dir,
		PreservedAt: time.Now(),
		SizeBytes:   size,
	}}, kept...)

	for len(list) > s.retention {
		oldest := list[len(list)-1]
		list = list[:len(list)-1]
		if err := os.RemoveAll(oldest.Path); err != nil {
			s.log.Warn("failed to evict preserved version",
				zap.String("version", oldest.Version), zap.Error(err))
		} else {
			s.log.Info("evicted preserved version",
				zap.String("version", oldest.Version),
				zap.Int64("sizeBytes", oldest.SizeBytes))
		}
	}

	return s.store.Write(storage.KeyRollbackMetadata, list)
}

// List returns preserved version metadata, newest-preserved first.
func (s *Service) List() ([]Metadata, error) {
	var list []Metadata
	err := s.store.Read(storage.KeyRollbackMetadata, &list)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// InstallRollback stages a rollback to version. The swap itself happens on
// the next launch; this only writes the pending instruction. Metadata whose
// directory has disappeared is purged (self-heal) and reported as not found.
func (s *Service) InstallRollback(version string) error {
	version = strings.TrimPrefix(version, "v")

	list, err := s.List()
	if err != nil {
		return err
	}

	idx := -1
	for i, m := range list {
		if m.Version == version {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}

	target := list[idx]
	if _, err := os.Stat(target.Path); err != nil {
		s.log.Warn("preserved version directory missing, purging metadata",
			zap.String("version", version), zap.String("path", target.Path))
		list = append(list[:idx], list[idx+1:]...)
		if werr := s.store.Write(storage.KeyRollbackMetadata, list); werr != nil {
			s.log.Warn("failed to persist purged metadata", zap.Error(werr))
		}
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}

	return s.store.Write(storage.KeyRollbackPending, Pending{
		TargetVersion: version,
		SourcePath:    target.Path,
		RequestedAt:   time.Now(),
	})
}

// CheckPendingRollback returns the staged rollback instruction, or nil when
// none is staged.
func (s *Service) CheckPendingRollback() (*Pending, error) {
	var p Pending
	err := s.store.Read(storage.KeyRollbackPending, &p)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClearPendingRollback removes the staged instruction. Idempotent.
func (s *Service) ClearPendingRollback() error {
	return s.store.Remove(storage.KeyRollbackPending)
}

func (s *Service) writeMarker(dir, version string) error {
	m := marker{
		Version:     version,
		Platform:    runtime.GOOS,
		Arch:        runtime.GOARCH,
		PreservedAt: time.Now(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version marker: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, markerName), data, 0o644); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	return nil
}

// dirSize returns the total byte size of all regular files under dir.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
