package app

import (
	"errors"
	"time"

	"github.com/gnoviawan/termul-sub001/internal/domain/session"
	"github.com/gnoviawan/termul-sub001/internal/migration"
	"github.com/gnoviawan/termul-sub001/internal/storage"
)

// registerMigrations installs every schema migration shipped with this
// build. Versions are registered in any order; the engine sorts them.
func registerMigrations(e *migration.Engine) {
	e.Register(migration.Migration{
		Version:     "1.1.0",
		Description: "move legacy window bounds into the window-state document",
		Apply:       migrateWindowBounds,
		Rollback:    rollbackWindowBounds,
	})
	e.Register(migration.Migration{
		Version:     "1.2.0",
		Description: "stamp layout documents missing an update time",
		Apply:       migrateLayoutTimestamps,
	})
}

// legacyBounds is the pre-1.1.0 window document, four bare coordinates
// under settings/window-bounds with no maximize flag.
type legacyBounds struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

const legacyBoundsKey = "settings/window-bounds"

type windowStateDoc struct {
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	IsMaximized bool `json:"isMaximized"`
}

func migrateWindowBounds(s *storage.Store) error {
	var legacy legacyBounds
	err := s.Read(legacyBoundsKey, &legacy)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Write(storage.KeyWindowState, windowStateDoc{
		X:      legacy.X,
		Y:      legacy.Y,
		Width:  legacy.W,
		Height: legacy.H,
	}); err != nil {
		return err
	}
	return s.Remove(legacyBoundsKey)
}

func rollbackWindowBounds(s *storage.Store) error {
	var state windowStateDoc
	err := s.Read(storage.KeyWindowState, &state)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Write(legacyBoundsKey, legacyBounds{
		X: state.X, Y: state.Y, W: state.Width, H: state.Height,
	}); err != nil {
		return err
	}
	return s.Remove(storage.KeyWindowState)
}

// migrateLayoutTimestamps walks the project list and rewrites any layout
// document whose updatedAt was never set. Unreadable layouts are skipped;
// restoration already tolerates them.
func migrateLayoutTimestamps(s *storage.Store) error {
	var projects []Project
	err := s.Read(storage.KeyProjects, &projects)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, p := range projects {
		key := storage.TerminalLayoutKey(p.ID)
		var layout session.PersistedLayout
		if err := s.Read(key, &layout); err != nil {
			continue
		}
		if !layout.UpdatedAt.IsZero() {
			continue
		}
		layout.UpdatedAt = now
		if err := s.Write(key, layout); err != nil {
			return err
		}
	}
	return nil
}
