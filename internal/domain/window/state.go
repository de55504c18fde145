// Package window tracks main-window geometry and restores it across
// launches, recovering windows stranded outside every display.
package window

import (
	"errors"
	"sync"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"go.uber.org/zap"
)

// Default window size used on fresh installs and recovery.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// Rect is a display or window rectangle in screen coordinates.
type Rect struct {
	X, Y, Width, Height int
}

// State is the persisted window geometry. While the window is maximized
// only IsMaximized changes; the last unmaximized bounds stay underneath so
// unmaximizing returns the window where it was.
type State struct {
	X           int  `json:"x"`
	Y           int  `json:"y"`
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	IsMaximized bool `json:"isMaximized"`
}

// Tracker follows window mutations and persists them through the
// write-behind coalescer under the window-state key.
type Tracker struct {
	coalescer *storage.Coalescer
	log       *logging.Logger

	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker writing through coalescer.
func NewTracker(coalescer *storage.Coalescer, log *logging.Logger) *Tracker {
	return &Tracker{
		coalescer: coalescer,
		log:       logging.OrNop(log).Named("window"),
	}
}

// Restore loads the persisted state and recovers off-screen geometry. A
// window positioned entirely outside every display is recentered on the
// primary display; width, height and the maximized flag are preserved from
// the stored value. Fresh installs get a centered default.
func (t *Tracker) Restore(store *storage.Store, displays []Rect) State {
	var s State
	err := store.Read(storage.KeyWindowState, &s)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s = defaultState(primary(displays))
	case err != nil:
		t.log.Warn("window state unreadable, using default", zap.Error(err))
		s = defaultState(primary(displays))
	default:
		if !onAnyDisplay(s, displays) {
			t.log.Info("window off-screen, recentering",
				zap.Int("x", s.X), zap.Int("y", s.Y))
			s = recenter(s, primary(displays))
		}
	}

	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
	return s
}

// SetBounds records a move or resize. Ignored while maximized; the bounds
// underneath a maximized window must survive until it is unmaximized.
func (t *Tracker) SetBounds(x, y, width, height int) {
	t.mu.Lock()
	if t.state.IsMaximized {
		t.mu.Unlock()
		return
	}
	t.state.X, t.state.Y = x, y
	t.state.Width, t.state.Height = width, height
	s := t.state
	t.mu.Unlock()

	t.coalescer.WriteDebounced(storage.KeyWindowState, s)
}

// SetMaximized flips only the maximized flag.
func (t *Tracker) SetMaximized(maximized bool) {
	t.mu.Lock()
	t.state.IsMaximized = maximized
	s := t.state
	t.mu.Unlock()

	t.coalescer.WriteDebounced(storage.KeyWindowState, s)
}

// State returns the current tracked state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func onAnyDisplay(s State, displays []Rect) bool {
	for _, d := range displays {
		if s.X < d.X+d.Width && s.X+s.Width > d.X &&
			s.Y < d.Y+d.Height && s.Y+s.Height > d.Y {
			return true
		}
	}
	return false
}

func recenter(s State, primary Rect) State {
	s.X = primary.X + (primary.Width-s.Width)/2
	s.Y = primary.Y + (primary.Height-s.Height)/2
	return s
}

func defaultState(primary Rect) State {
	return recenter(State{Width: DefaultWidth, Height: DefaultHeight}, primary)
}

func primary(displays []Rect) Rect {
	if len(displays) == 0 {
		return Rect{Width: 1920, Height: 1080}
	}
	return displays[0]
}
