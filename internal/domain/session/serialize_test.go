package session

import (
	"testing"

	"github.com/gnoviawan/termul-sub001/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureLayoutMapsTerminals(t *testing.T) {
	terminals := []LiveTerminal{
		&fakeTerminal{id: "t1", name: "build", shell: "/bin/bash", cwd: "/src",
			buf: &fakeBuffer{lines: []string{"$ make", "ok"}}},
		&fakeTerminal{id: "t2", name: "scratch", shell: "/bin/zsh"},
	}

	layout := CaptureLayout(terminals, "t2", 0)

	require.Len(t, layout.Terminals, 2)
	assert.Equal(t, "t2", layout.ActiveTerminalID)
	assert.False(t, layout.UpdatedAt.IsZero())

	assert.Equal(t, PersistedTerminal{
		ID: "t1", Name: "build", Shell: "/bin/bash", Cwd: "/src",
		Scrollback: []string{"$ make", "ok"},
	}, layout.Terminals[0])
	assert.Nil(t, layout.Terminals[1].Scrollback, "empty scrollback is omitted")
}

func TestCaptureScrollbackBoundsToMaxLines(t *testing.T) {
	lines := make([]string, 50)
	for i := range lines {
		lines[i] = string(rune('a' + i%26))
	}
	buf := &fakeBuffer{lines: lines}

	got := captureScrollback(buf, 10)
	require.Len(t, got, 10)
	assert.Equal(t, lines[40:], got, "the most recent lines win")
}

func TestCaptureScrollbackTrimsTrailingBlanks(t *testing.T) {
	buf := &fakeBuffer{lines: []string{"out", "", "  ", "\t"}}
	assert.Equal(t, []string{"out"}, captureScrollback(buf, 100))

	allBlank := &fakeBuffer{lines: []string{"", "   ", ""}}
	assert.Nil(t, captureScrollback(allBlank, 100), "all-blank scrollback is omitted entirely")
}

func TestAutoSaverDebouncesLayoutWrites(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	coalescer := storage.NewCoalescer(store, nil, storage.DefaultDebounce, nil)
	pool := newFakePool()
	restorer := NewRestorer(store, pool, &fakeFactory{pool: pool, projectID: "p1"}, Config{}, nil)
	saver := NewAutoSaver(coalescer, restorer, pool, nil)

	pool.add("p1", &fakeTerminal{id: "t1", name: "one", shell: "/bin/bash"})

	saver.LayoutChanged("p1", "t1")
	saver.LayoutChanged("p1", "t1")
	assert.Equal(t, 1, coalescer.PendingCount(), "bursts coalesce per key")

	require.NoError(t, coalescer.FlushAll())

	var layout PersistedLayout
	require.NoError(t, store.Read(storage.TerminalLayoutKey("p1"), &layout))
	assert.Equal(t, "t1", layout.ActiveTerminalID)
	require.Len(t, layout.Terminals, 1)
	assert.Equal(t, "one", layout.Terminals[0].Name)
}

func TestAutoSaverSuppressedDuringRestore(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	coalescer := storage.NewCoalescer(store, nil, storage.DefaultDebounce, nil)
	pool := newFakePool()
	restorer := NewRestorer(store, pool, &fakeFactory{pool: pool, projectID: "p1"}, Config{}, nil)
	saver := NewAutoSaver(coalescer, restorer, pool, nil)

	pool.add("p1", &fakeTerminal{id: "t1", name: "one"})

	restorer.restoring.Store(true)
	saver.LayoutChanged("p1", "t1")
	assert.Equal(t, 0, coalescer.PendingCount(),
		"a partially restored layout must never be persisted")

	restorer.restoring.Store(false)
	saver.LayoutChanged("p1", "t1")
	assert.Equal(t, 1, coalescer.PendingCount())
}

func TestAutoSaverSkipsEmptyProjects(t *testing.T) {
	store := storage.New(t.TempDir(), nil)
	coalescer := storage.NewCoalescer(store, nil, storage.DefaultDebounce, nil)
	pool := newFakePool()
	saver := NewAutoSaver(coalescer, nil, pool, nil)

	saver.LayoutChanged("empty", "")
	assert.Equal(t, 0, coalescer.PendingCount())
}
