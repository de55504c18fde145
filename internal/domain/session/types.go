package session

import (
	"context"
	"time"
)

// PersistedTerminal is the durable record of one terminal. Its ID is the
// terminal's ID at capture time; after a restart it no longer matches any
// live terminal and is resolved through the old-to-new ID map.
type PersistedTerminal struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Shell      string   `json:"shell"`
	Cwd        string   `json:"cwd,omitempty"`
	Scrollback []string `json:"scrollback,omitempty"`
}

// PersistedLayout is the durable layout document for one project, stored
// under terminals/<projectID>.
type PersistedLayout struct {
	ActiveTerminalID string              `json:"activeTerminalId"`
	Terminals        []PersistedTerminal `json:"terminals"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// BufferReader exposes a terminal's scrollback buffer to serialization.
// This is the only view of terminal output the engine consumes.
type BufferReader interface {
	LineCount() int
	Line(i int) string
}

// LiveTerminal is the engine's view of a terminal owned by the UI layer.
type LiveTerminal interface {
	ID() string
	Name() string
	Shell() string
	WorkingDir() string
	Buffer() BufferReader
}

// CreateSpec seeds a terminal created during restoration. ProjectID names
// the project that will own the terminal in the pool.
type CreateSpec struct {
	ProjectID      string
	Name           string
	Shell          string
	WorkingDir     string
	SeedScrollback []string
}

// Factory creates live terminals. Implemented by the terminal adapter.
type Factory interface {
	Create(ctx context.Context, spec CreateSpec) (LiveTerminal, error)
}

// Pool is the UI-owned collection of live terminals, keyed by project.
// Restoration reads it and selects the active terminal through it, nothing
// more.
type Pool interface {
	TerminalsFor(projectID string) []LiveTerminal
	SetActive(projectID, terminalID string)
}
