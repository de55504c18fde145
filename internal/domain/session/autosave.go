package session

import (
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

// AutoSaver persists layout changes through the write-behind coalescer.
// The UI layer notifies it on every mutation worth saving (terminal
// created, closed, renamed, selection changed, output settled).
type AutoSaver struct {
	coalescer *storage.Coalescer
	restorer  *Restorer
	pool      Pool
	log       *logging.Logger
}

// NewAutoSaver wires the auto-save subscriber.
func NewAutoSaver(coalescer *storage.Coalescer, restorer *Restorer, pool Pool, log *logging.Logger) *AutoSaver {
	return &AutoSaver{
		coalescer: coalescer,
		restorer:  restorer,
		pool:      pool,
		log:       logging.OrNop(log).Named("autosave"),
	}
}

// LayoutChanged captures the project's current layout and schedules a
// debounced write. Calls arriving while a restoration is in progress are
// dropped: persisting a half-restored layout would clobber the saved one.
func (a *AutoSaver) LayoutChanged(projectID, activeTerminalID string) {
	if a.restorer != nil && a.restorer.Restoring() {
		a.log.Debug("suppressing auto-save during restoration",
			zap.String("project", projectID))
		return
	}

	terminals := a.pool.TerminalsFor(projectID)
	if len(terminals) == 0 {
		return
	}

	maxLines := DefaultMaxScrollbackLines
	if a.restorer != nil {
		maxLines = a.restorer.MaxScrollbackLines()
	}
	layout := CaptureLayout(terminals, activeTerminalID, maxLines)
	a.coalescer.WriteDebounced(storage.TerminalLayoutKey(projectID), layout)
}

// Flush forces the pending layout write for a project, if any.
func (a *AutoSaver) Flush(projectID string) error {
	return a.coalescer.Flush(storage.TerminalLayoutKey(projectID))
}
