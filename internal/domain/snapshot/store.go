// Package snapshot stores immutable point-in-time captures of a project's
// terminal layout. A snapshot is never edited after creation, only deleted.
package snapshot

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gnoviawan/termul-sub001/internal/domain/session"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/shared/id"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

// ErrSnapshotNotFound indicates no snapshot with the given ID exists for
// the project.
var ErrSnapshotNotFound = errors.New("snapshot: not found")

// Snapshot is one immutable layout capture.
type Snapshot struct {
	ID               string                      `json:"id"`
	ProjectID        string                      `json:"projectId"`
	Name             string                      `json:"name"`
	Description      string                      `json:"description,omitempty"`
	CreatedAt        time.Time                   `json:"createdAt"`
	Terminals        []session.PersistedTerminal `json:"terminals"`
	ActiveTerminalID string                      `json:"activeTerminalId"`
	Tag              string                      `json:"tag,omitempty"`
}

// CreateOptions name the optional fields of a new snapshot.
type CreateOptions struct {
	Description string
	Tag         string
}

// Store keeps per-project snapshot lists, newest first, mirrored between
// memory and the durable store. In-memory state changes only after the
// durable write succeeds, so the two can never silently diverge.
type Store struct {
	store *storage.Store
	log   *logging.Logger

	mu     sync.Mutex
	local  map[string][]Snapshot
	loaded map[string]bool
}

// NewStore creates a snapshot store over the durable store.
func NewStore(store *storage.Store, log *logging.Logger) *Store {
	return &Store{
		store:  store,
		log:    logging.OrNop(log).Named("snapshot"),
		local:  make(map[string][]Snapshot),
		loaded: make(map[string]bool),
	}
}

// Create captures a new snapshot at the head of the project's list. The new
// list is computed, written durably, and only then committed to memory; a
// failed write leaves local state exactly as it was and surfaces the error.
func (s *Store) Create(projectID, name string, terminals []session.PersistedTerminal, activeTerminalID string, opts CreateOptions) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(projectID); err != nil {
		return nil, err
	}

	snap := Snapshot{
		ID:               id.NewSnapshotID().String(),
		ProjectID:        projectID,
		Name:             name,
		Description:      opts.Description,
		CreatedAt:        time.Now(),
		Terminals:        terminals,
		ActiveTerminalID: activeTerminalID,
		Tag:              opts.Tag,
	}

	next := append([]Snapshot{snap}, s.local[projectID]...)
	if err := s.store.Write(storage.SnapshotListKey(projectID), next); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	s.local[projectID] = next

	s.log.Info("snapshot created",
		zap.String("project", projectID),
		zap.String("id", snap.ID),
		zap.Int("terminals", len(terminals)))
	return &snap, nil
}

// Delete removes a snapshot. Deleting an ID absent from local state is a
// no-op that performs no I/O.
func (s *Store) Delete(projectID, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(projectID); err != nil {
		return err
	}

	list := s.local[projectID]
	idx := -1
	for i, snap := range list {
		if snap.ID == snapshotID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := make([]Snapshot, 0, len(list)-1)
	next = append(next, list[:idx]...)
	next = append(next, list[idx+1:]...)

	if err := s.store.Write(storage.SnapshotListKey(projectID), next); err != nil {
		return fmt.Errorf("persist snapshot delete: %w", err)
	}
	s.local[projectID] = next
	return nil
}

// Get returns one snapshot by ID.
func (s *Store) Get(projectID, snapshotID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(projectID); err != nil {
		return nil, err
	}
	for _, snap := range s.local[projectID] {
		if snap.ID == snapshotID {
			return &snap, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
}

// List returns the project's snapshots, newest first.
func (s *Store) List(projectID string) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(projectID); err != nil {
		return nil, err
	}
	out := make([]Snapshot, len(s.local[projectID]))
	copy(out, s.local[projectID])
	return out, nil
}

// ensureLoaded lazily reads a project's persisted list into memory once.
// Caller holds s.mu.
func (s *Store) ensureLoaded(projectID string) error {
	if s.loaded[projectID] {
		return nil
	}

	var list []Snapshot
	err := s.store.Read(storage.SnapshotListKey(projectID), &list)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	s.local[projectID] = list
	s.loaded[projectID] = true
	return nil
}
