package migration

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/monitoring"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning rejects a concurrent migration run.
	ErrAlreadyRunning = errors.New("migration: run already in progress")
	// ErrMigrationNotFound indicates the version is not registered.
	ErrMigrationNotFound = errors.New("migration: version not registered")
	// ErrRollbackUnsupported indicates the migration has no rollback step.
	ErrRollbackUnsupported = errors.New("migration: no rollback registered for version")
)

// Migration is one versioned schema change. Rollback is optional.
type Migration struct {
	Version     string
	Description string
	Apply       func(*storage.Store) error
	Rollback    func(*storage.Store) error
}

// Record is an append-only history entry, never mutated after append.
type Record struct {
	Version    string    `json:"version"`
	AppliedAt  time.Time `json:"appliedAt"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Rollback   bool      `json:"rollback,omitempty"`
}

// Result is the in-memory outcome of one step of a run.
type Result struct {
	Version  string
	Success  bool
	Err      error
	Duration time.Duration
}

type versionDoc struct {
	Version string `json:"version"`
}

// Engine applies registered migrations against the store.
type Engine struct {
	store   *storage.Store
	log     *logging.Logger
	metrics *monitoring.Metrics

	running  atomic.Bool
	registry map[string]Migration
}

// NewEngine creates a migration engine over store.
func NewEngine(store *storage.Store, log *logging.Logger) *Engine {
	return &Engine{
		store:    store,
		log:      logging.OrNop(log).Named("migration"),
		registry: make(map[string]Migration),
	}
}

// SetMetrics attaches a metrics handle. Safe to leave unset.
func (e *Engine) SetMetrics(m *monitoring.Metrics) { e.metrics = m }

// Register adds a migration to the registry. Registering the same version
// twice replaces the earlier entry. Not safe for use concurrent with Run;
// registration happens during startup wiring.
func (e *Engine) Register(m Migration) {
	e.registry[m.Version] = m
}

// CurrentVersion returns the on-disk schema version, InitialVersion when no
// version document has ever been written.
func (e *Engine) CurrentVersion() (string, error) {
	var doc versionDoc
	err := e.store.Read(storage.KeySchemaVersion, &doc)
	if errors.Is(err, storage.ErrNotFound) {
		return InitialVersion, nil
	}
	if err != nil {
		return "", err
	}
	return doc.Version, nil
}

// History returns the persisted migration history, oldest first.
func (e *Engine) History() ([]Record, error) {
	var history []Record
	err := e.store.Read(storage.KeyMigrationHistory, &history)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return history, nil
}

// Run applies every pending migration in ascending version order. Pending
// means registered with a version greater than the current schema version
// and not already recorded successful in history. The schema version is
// persisted after each successful step; the first failure stops the run and
// is returned along with the results gathered so far. A completed run makes
// a subsequent Run a no-op with empty results.
func (e *Engine) Run() ([]Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer e.running.Store(false)

	current, err := e.CurrentVersion()
	if err != nil {
		return nil, fmt.Errorf("read schema version: %w", err)
	}

	history, err := e.History()
	if err != nil {
		return nil, fmt.Errorf("read migration history: %w", err)
	}
	// History is replayed in order so a successful rollback clears the
	// apply record and the migration becomes pending again.
	succeeded := make(map[string]bool, len(history))
	for _, rec := range history {
		if !rec.Success {
			continue
		}
		if rec.Rollback {
			delete(succeeded, rec.Version)
		} else {
			succeeded[rec.Version] = true
		}
	}

	var pending []Migration
	for _, m := range e.registry {
		if CompareVersions(m.Version, current) > 0 {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return CompareVersions(pending[i].Version, pending[j].Version) < 0
	})

	var results []Result
	for _, m := range pending {
		if succeeded[m.Version] {
			e.log.Debug("skipping previously applied migration",
				zap.String("version", m.Version))
			continue
		}

		e.log.Info("applying migration",
			zap.String("version", m.Version),
			zap.String("description", m.Description))

		start := time.Now()
		applyErr := m.Apply(e.store)
		took := time.Since(start)

		rec := Record{
			Version:    m.Version,
			AppliedAt:  start,
			Success:    applyErr == nil,
			DurationMs: took.Milliseconds(),
		}
		if applyErr != nil {
			rec.Error = applyErr.Error()
		}
		history = append(history, rec)
		if err := e.store.Write(storage.KeyMigrationHistory, history); err != nil {
			e.log.Warn("failed to persist migration history", zap.Error(err))
		}
		e.metrics.RecordMigration(applyErr == nil)

		if applyErr != nil {
			results = append(results, Result{Version: m.Version, Err: applyErr, Duration: took})
			e.log.Error("migration failed, stopping run",
				zap.String("version", m.Version), zap.Error(applyErr))
			return results, fmt.Errorf("migration %s: %w", m.Version, applyErr)
		}

		if err := e.setVersion(m.Version); err != nil {
			results = append(results, Result{Version: m.Version, Err: err, Duration: took})
			return results, fmt.Errorf("persist schema version %s: %w", m.Version, err)
		}
		results = append(results, Result{Version: m.Version, Success: true, Duration: took})
	}

	return results, nil
}

// RollbackMigration reverses one previously applied migration and reverts
// the schema version to its registry-order predecessor, or InitialVersion
// when it was the first.
func (e *Engine) RollbackMigration(version string) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	m, ok := e.registry[version]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMigrationNotFound, version)
	}
	if m.Rollback == nil {
		return fmt.Errorf("%w: %s", ErrRollbackUnsupported, version)
	}

	start := time.Now()
	rbErr := m.Rollback(e.store)

	history, err := e.History()
	if err != nil {
		e.log.Warn("failed to read migration history", zap.Error(err))
	}
	rec := Record{
		Version:    version,
		AppliedAt:  start,
		Success:    rbErr == nil,
		DurationMs: time.Since(start).Milliseconds(),
		Rollback:   true,
	}
	if rbErr != nil {
		rec.Error = rbErr.Error()
	}
	history = append(history, rec)
	if err := e.store.Write(storage.KeyMigrationHistory, history); err != nil {
		e.log.Warn("failed to persist migration history", zap.Error(err))
	}

	if rbErr != nil {
		return fmt.Errorf("rollback %s: %w", version, rbErr)
	}

	if err := e.setVersion(e.predecessor(version)); err != nil {
		return fmt.Errorf("persist schema version after rollback: %w", err)
	}
	e.log.Info("migration rolled back", zap.String("version", version))
	return nil
}

// predecessor returns the registered version immediately preceding v in
// comparator order.
func (e *Engine) predecessor(v string) string {
	prev := InitialVersion
	for _, m := range e.registry {
		if CompareVersions(m.Version, v) < 0 && CompareVersions(m.Version, prev) > 0 {
			prev = m.Version
		}
	}
	return prev
}

func (e *Engine) setVersion(v string) error {
	return e.store.Write(storage.KeySchemaVersion, versionDoc{Version: v})
}
