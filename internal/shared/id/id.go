// Package id provides centralized ID generation for the persistence engine.
//
// Snapshot and terminal IDs are prefixed ULIDs: time-plus-random, so they
// sort by creation time and never collide within a process. Project IDs are
// UUIDs, matching what the UI layer hands us for workspace folders.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TerminalID identifies a live terminal instance. Regenerated on every
// restoration; persisted layouts map old IDs to new ones.
type TerminalID string

// SnapshotID identifies an immutable layout snapshot.
type SnapshotID string

// ProjectID identifies a project workspace.
type ProjectID string

const (
	TerminalPrefix = "term"
	SnapshotPrefix = "snap"
)

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewTerminalID generates a new terminal ID.
func NewTerminalID() TerminalID {
	return TerminalID(Default().GenerateWithPrefix(TerminalPrefix))
}

// NewSnapshotID generates a new snapshot ID.
func NewSnapshotID() SnapshotID {
	return SnapshotID(Default().GenerateWithPrefix(SnapshotPrefix))
}

// NewProjectID generates a new project ID.
func NewProjectID() ProjectID {
	return ProjectID(uuid.NewString())
}

func (id TerminalID) String() string { return string(id) }
func (id SnapshotID) String() string { return string(id) }
func (id ProjectID) String() string  { return string(id) }
