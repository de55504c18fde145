package app

import (
	"context"
	"fmt"

	terminaladapter "github.com/gnoviawan/termul-sub001/internal/adapter/terminal"
	"github.com/gnoviawan/termul-sub001/internal/domain/session"
	"github.com/gnoviawan/termul-sub001/internal/domain/snapshot"
	"github.com/gnoviawan/termul-sub001/internal/domain/window"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/config"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/monitoring"
	"github.com/gnoviawan/termul-sub001/internal/migration"
	"github.com/gnoviawan/termul-sub001/internal/rollback"
	"github.com/gnoviawan/termul-sub001/internal/shared/paths"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager owns every engine service and their startup/shutdown ordering.
type Manager struct {
	cfg *config.Config
	log *logging.Logger

	Store      *storage.Store
	Coalescer  *storage.Coalescer
	Migrations *migration.Engine
	Rollback   *rollback.Service
	Terminals  *terminaladapter.Manager
	Window     *window.Tracker
	Snapshots  *snapshot.Store
	Restorer   *session.Restorer
	AutoSaver  *session.AutoSaver
}

// New constructs the engine from configuration. The storage root is the
// configured data directory, falling back to the platform default.
func New(cfg *config.Config, log *logging.Logger, reg prometheus.Registerer) (*Manager, error) {
	log = logging.OrNop(log)

	dataDir := cfg.Data.Dir
	if dataDir == "" {
		var err error
		dataDir, err = paths.DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
	}

	var metrics *monitoring.Metrics
	if reg != nil {
		metrics = monitoring.New(reg)
	}

	store := storage.New(dataDir, log)
	store.SetMetrics(metrics)

	coalescer := storage.NewCoalescer(store, nil, cfg.Persistence.Debounce(), log)
	coalescer.SetMetrics(metrics)

	migrations := migration.NewEngine(store, log)
	migrations.SetMetrics(metrics)
	registerMigrations(migrations)

	terminals := terminaladapter.NewManager(cfg.Terminal.MaxScrollbackLines, log)

	restorer := session.NewRestorer(store, terminals, terminals, session.Config{
		MaxScrollbackLines: cfg.Terminal.MaxScrollbackLines,
		GlobalShell:        cfg.Terminal.DefaultShell,
		ProjectShell:       projectShellLookup(store),
	}, log)
	restorer.SetMetrics(metrics)

	m := &Manager{
		cfg:        cfg,
		log:        log,
		Store:      store,
		Coalescer:  coalescer,
		Migrations: migrations,
		Rollback:   rollback.NewService(store, cfg.Rollback.Retention, log),
		Terminals:  terminals,
		Window:     window.NewTracker(coalescer, log),
		Snapshots:  snapshot.NewStore(store, log),
		Restorer:   restorer,
	}
	m.AutoSaver = session.NewAutoSaver(coalescer, restorer, terminals, log)
	return m, nil
}

// Start brings persisted state up to date. It must run before anything
// reads documents: first the staged-rollback check, then schema
// migrations. A failed migration run is logged, not fatal; the engine
// starts on whatever schema version was last reached.
func (m *Manager) Start(ctx context.Context) error {
	if pending, err := m.Rollback.CheckPendingRollback(); err != nil {
		m.log.Warn("pending rollback unreadable", zap.Error(err))
	} else if pending != nil {
		// The updater swaps binaries before we get here; our job is to
		// acknowledge the instruction so it runs once.
		m.log.Info("completing staged rollback",
			zap.String("targetVersion", pending.TargetVersion),
			zap.String("sourcePath", pending.SourcePath))
		if err := m.Rollback.ClearPendingRollback(); err != nil {
			m.log.Warn("failed to clear pending rollback", zap.Error(err))
		}
	}

	results, err := m.Migrations.Run()
	if err != nil {
		m.log.Error("migration run stopped", zap.Error(err))
	}
	for _, r := range results {
		m.log.Info("migration step",
			zap.String("version", r.Version),
			zap.Bool("success", r.Success),
			zap.Duration("took", r.Duration))
	}

	return ctx.Err()
}

// RestoreProject recreates or reselects a project's terminals. Auto-save
// is suppressed for the duration.
func (m *Manager) RestoreProject(ctx context.Context, projectID string) error {
	return m.Restorer.RestoreProject(ctx, projectID)
}

// RestoreWindow loads persisted window geometry, recovering off-screen
// windows against the displays the shell reports.
func (m *Manager) RestoreWindow(displays []window.Rect) window.State {
	return m.Window.Restore(m.Store, displays)
}

type lastActiveDoc struct {
	ProjectID string `json:"projectId"`
}

// SetLastActiveProject records which project the user is working in, so the
// next launch can reopen it. Debounced like other interaction-rate writes.
func (m *Manager) SetLastActiveProject(projectID string) {
	m.Coalescer.WriteDebounced(storage.KeyLastActive, lastActiveDoc{ProjectID: projectID})
}

// LastActiveProject returns the project recorded by SetLastActiveProject,
// empty when none was ever recorded.
func (m *Manager) LastActiveProject() string {
	var doc lastActiveDoc
	if err := m.Store.Read(storage.KeyLastActive, &doc); err != nil {
		return ""
	}
	return doc.ProjectID
}

// CreateSnapshot captures the project's current terminals into a named
// snapshot.
func (m *Manager) CreateSnapshot(projectID, name string, opts snapshot.CreateOptions) (*snapshot.Snapshot, error) {
	layout := session.CaptureLayout(
		m.Terminals.TerminalsFor(projectID),
		m.Terminals.ActiveTerminal(projectID),
		m.cfg.Terminal.MaxScrollbackLines)
	return m.Snapshots.Create(projectID, name, layout.Terminals, layout.ActiveTerminalID, opts)
}

// Stop shuts the engine down: flush every pending debounced write, then
// tear the terminals down. The flush is mandatory; without it the last
// in-flight mutation for any key with a live timer is lost.
func (m *Manager) Stop() error {
	err := m.Coalescer.FlushAll()
	m.Terminals.CloseAll()
	return multierr.Append(err, m.log.Sync())
}

// Project is one entry of the persisted project list.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Shell string `json:"shell,omitempty"`
}

// projectShellLookup resolves the per-project shell override from the
// projects document.
func projectShellLookup(store *storage.Store) func(string) string {
	return func(projectID string) string {
		var projects []Project
		if err := store.Read(storage.KeyProjects, &projects); err != nil {
			return ""
		}
		for _, p := range projects {
			if p.ID == projectID {
				return p.Shell
			}
		}
		return ""
	}
}
