package session

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/monitoring"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

// Config tunes the restorer.
type Config struct {
	// MaxScrollbackLines bounds captured scrollback per terminal.
	MaxScrollbackLines int
	// GlobalShell is the user's configured default shell, if any.
	GlobalShell string
	// ProjectShell looks up a per-project shell override. Optional.
	ProjectShell func(projectID string) string
	// DefaultTerminalName names the terminal created on the fallback path.
	DefaultTerminalName string
}

// Restorer reconstructs live terminal state from persisted layouts.
type Restorer struct {
	store   *storage.Store
	pool    Pool
	factory Factory
	cfg     Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	restoring atomic.Bool
}

// NewRestorer creates a restorer over the store, the UI's terminal pool and
// the terminal factory.
func NewRestorer(store *storage.Store, pool Pool, factory Factory, cfg Config, log *logging.Logger) *Restorer {
	if cfg.MaxScrollbackLines <= 0 {
		cfg.MaxScrollbackLines = DefaultMaxScrollbackLines
	}
	if cfg.DefaultTerminalName == "" {
		cfg.DefaultTerminalName = "Terminal 1"
	}
	return &Restorer{
		store:   store,
		pool:    pool,
		factory: factory,
		cfg:     cfg,
		log:     logging.OrNop(log).Named("restore"),
	}
}

// SetMetrics attaches a metrics handle. Safe to leave unset.
func (r *Restorer) SetMetrics(m *monitoring.Metrics) { r.metrics = m }

// Restoring reports whether a restoration is in progress. The auto-saver
// checks this and suppresses writes, so a half-restored layout is never
// persisted over the saved one.
func (r *Restorer) Restoring() bool { return r.restoring.Load() }

// MaxScrollbackLines returns the configured scrollback bound.
func (r *Restorer) MaxScrollbackLines() int { return r.cfg.MaxScrollbackLines }

// RestoreProject brings a project's terminals back, following the
// restoration state machine. It never returns a user-facing error for a
// broken layout: corruption degrades to a default terminal. The returned
// error reports only a total failure to create any terminal.
func (r *Restorer) RestoreProject(ctx context.Context, projectID string) error {
	r.restoring.Store(true)
	defer r.restoring.Store(false)

	live := r.pool.TerminalsFor(projectID)
	if len(live) > 0 {
		// Project kept warm in memory: recreate nothing, just fix the
		// selection.
		r.resolveActiveAmongLive(projectID, live)
		r.metrics.RecordRestoration(0, false)
		return nil
	}

	layout, ok := r.readLayout(projectID)
	if !ok || len(layout.Terminals) == 0 {
		err := r.createDefault(ctx, projectID)
		r.metrics.RecordRestoration(0, true)
		return err
	}

	idMap := make(map[string]string, len(layout.Terminals))
	var created []LiveTerminal
	for _, pt := range layout.Terminals {
		spec := CreateSpec{
			ProjectID:      projectID,
			Name:           pt.Name,
			Shell:          pt.Shell,
			WorkingDir:     pt.Cwd,
			SeedScrollback: pt.Scrollback,
		}
		if spec.Shell == "" {
			spec.Shell = r.fallbackShell(projectID)
		}
		lt, err := r.factory.Create(ctx, spec)
		if err != nil {
			r.log.Warn("failed to recreate terminal",
				zap.String("project", projectID),
				zap.String("name", pt.Name),
				zap.Error(err))
			continue
		}
		idMap[pt.ID] = lt.ID()
		created = append(created, lt)
	}

	if len(created) == 0 {
		err := r.createDefault(ctx, projectID)
		r.metrics.RecordRestoration(0, true)
		return err
	}

	activeID, resolved := idMap[layout.ActiveTerminalID]
	if !resolved {
		activeID = created[0].ID()
	}
	r.pool.SetActive(projectID, activeID)

	r.log.Info("project restored",
		zap.String("project", projectID),
		zap.Int("terminals", len(created)),
		zap.Bool("activeResolved", resolved))
	r.metrics.RecordRestoration(len(created), false)
	return nil
}

// resolveActiveAmongLive selects the active terminal for a project that
// still has live terminals, using three tiers: direct ID match, name of the
// persisted active record, first live terminal. Some terminal is always
// selected.
func (r *Restorer) resolveActiveAmongLive(projectID string, live []LiveTerminal) {
	layout, ok := r.readLayout(projectID)
	if ok && layout.ActiveTerminalID != "" {
		for _, lt := range live {
			if lt.ID() == layout.ActiveTerminalID {
				r.pool.SetActive(projectID, lt.ID())
				return
			}
		}
		for _, pt := range layout.Terminals {
			if pt.ID != layout.ActiveTerminalID {
				continue
			}
			for _, lt := range live {
				if lt.Name() == pt.Name {
					r.pool.SetActive(projectID, lt.ID())
					return
				}
			}
			break
		}
	}
	r.pool.SetActive(projectID, live[0].ID())
}

// readLayout loads the persisted layout, treating both absence and
// corruption as "nothing to restore". Corruption is logged; absence is the
// normal fresh state.
func (r *Restorer) readLayout(projectID string) (PersistedLayout, bool) {
	var layout PersistedLayout
	err := r.store.Read(storage.TerminalLayoutKey(projectID), &layout)
	switch {
	case err == nil:
		return layout, true
	case errors.Is(err, storage.ErrNotFound):
		return PersistedLayout{}, false
	default:
		r.log.Warn("layout unreadable, falling back to default terminal",
			zap.String("project", projectID), zap.Error(err))
		return PersistedLayout{}, false
	}
}

func (r *Restorer) createDefault(ctx context.Context, projectID string) error {
	lt, err := r.factory.Create(ctx, CreateSpec{
		ProjectID: projectID,
		Name:      r.cfg.DefaultTerminalName,
		Shell:     r.fallbackShell(projectID),
	})
	if err != nil {
		return err
	}
	r.pool.SetActive(projectID, lt.ID())
	return nil
}

// fallbackShell resolves the shell for new terminals: project setting,
// then the configured global default, then the environment, then the
// platform default.
func (r *Restorer) fallbackShell(projectID string) string {
	if r.cfg.ProjectShell != nil {
		if shell := r.cfg.ProjectShell(projectID); shell != "" {
			return shell
		}
	}
	if r.cfg.GlobalShell != "" {
		return r.cfg.GlobalShell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "windows" {
		return "cmd.exe"
	}
	return "/bin/bash"
}
