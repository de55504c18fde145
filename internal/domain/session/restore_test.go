package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/gnoviawan/termul-sub001/internal/shared/id"
	"github.com/gnoviawan/termul-sub001/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	lines []string
}

func (b *fakeBuffer) LineCount() int    { return len(b.lines) }
func (b *fakeBuffer) Line(i int) string { return b.lines[i] }

type fakeTerminal struct {
	id    string
	name  string
	shell string
	cwd   string
	buf   *fakeBuffer
	seed  []string
}

func (t *fakeTerminal) ID() string         { return t.id }
func (t *fakeTerminal) Name() string       { return t.name }
func (t *fakeTerminal) Shell() string      { return t.shell }
func (t *fakeTerminal) WorkingDir() string { return t.cwd }
func (t *fakeTerminal) Buffer() BufferReader {
	if t.buf == nil {
		return &fakeBuffer{}
	}
	return t.buf
}

type fakePool struct {
	terminals map[string][]LiveTerminal
	active    map[string]string
}

func newFakePool() *fakePool {
	return &fakePool{
		terminals: make(map[string][]LiveTerminal),
		active:    make(map[string]string),
	}
}

func (p *fakePool) TerminalsFor(projectID string) []LiveTerminal { return p.terminals[projectID] }
func (p *fakePool) SetActive(projectID, terminalID string)       { p.active[projectID] = terminalID }
func (p *fakePool) add(projectID string, t LiveTerminal) {
	p.terminals[projectID] = append(p.terminals[projectID], t)
}

type fakeFactory struct {
	pool      *fakePool
	projectID string
	created   []*fakeTerminal
	failFor   map[string]error
}

func (f *fakeFactory) Create(_ context.Context, spec CreateSpec) (LiveTerminal, error) {
	if err := f.failFor[spec.Name]; err != nil {
		return nil, err
	}
	t := &fakeTerminal{
		id:    id.NewTerminalID().String(),
		name:  spec.Name,
		shell: spec.Shell,
		cwd:   spec.WorkingDir,
		seed:  spec.SeedScrollback,
	}
	f.created = append(f.created, t)
	f.pool.add(f.projectID, t)
	return t, nil
}

func newRestoreFixture(t *testing.T, cfg Config) (*Restorer, *storage.Store, *fakePool, *fakeFactory) {
	t.Helper()
	store := storage.New(t.TempDir(), nil)
	pool := newFakePool()
	factory := &fakeFactory{pool: pool, projectID: "p1"}
	return NewRestorer(store, pool, factory, cfg, nil), store, pool, factory
}

func TestRestoreFreshProjectCreatesDefaultTerminal(t *testing.T) {
	r, _, pool, factory := newRestoreFixture(t, Config{GlobalShell: "/bin/zsh"})

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))

	require.Len(t, factory.created, 1)
	created := factory.created[0]
	assert.Equal(t, "Terminal 1", created.name)
	assert.Equal(t, "/bin/zsh", created.shell)
	assert.Equal(t, created.id, pool.active["p1"], "the default terminal is selected")
}

func TestShellFallbackChain(t *testing.T) {
	projectShell := func(string) string { return "/bin/fish" }

	r, _, _, factory := newRestoreFixture(t, Config{
		GlobalShell:  "/bin/zsh",
		ProjectShell: projectShell,
	})
	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "/bin/fish", factory.created[0].shell, "project setting wins")

	r2, _, _, factory2 := newRestoreFixture(t, Config{GlobalShell: "/bin/zsh"})
	require.NoError(t, r2.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "/bin/zsh", factory2.created[0].shell, "global default next")

	t.Setenv("SHELL", "/usr/bin/ksh")
	r3, _, _, factory3 := newRestoreFixture(t, Config{})
	require.NoError(t, r3.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "/usr/bin/ksh", factory3.created[0].shell, "environment next")
}

func TestRestoreRecreatesPersistedLayout(t *testing.T) {
	r, store, pool, factory := newRestoreFixture(t, Config{})

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "old-2",
		Terminals: []PersistedTerminal{
			{ID: "old-1", Name: "build", Shell: "/bin/bash", Cwd: "/src"},
			{ID: "old-2", Name: "server", Shell: "/bin/zsh", Scrollback: []string{"$ make run", "listening on :8080"}},
		},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))

	require.Len(t, factory.created, 2)
	build, server := factory.created[0], factory.created[1]

	assert.NotEqual(t, "old-1", build.id, "recreated terminals get fresh identifiers")
	assert.Equal(t, "build", build.name)
	assert.Equal(t, "/src", build.cwd)
	assert.Equal(t, []string{"$ make run", "listening on :8080"}, server.seed,
		"scrollback is carried over as restoration seed")

	assert.Equal(t, server.id, pool.active["p1"],
		"persisted active ID resolves through the old-to-new map")
}

func TestRestoreUnresolvableActiveSelectsFirst(t *testing.T) {
	r, store, pool, factory := newRestoreFixture(t, Config{})

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "never-existed",
		Terminals: []PersistedTerminal{
			{ID: "old-1", Name: "one", Shell: "/bin/bash"},
			{ID: "old-2", Name: "two", Shell: "/bin/bash"},
		},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, factory.created[0].id, pool.active["p1"])
}

func TestRestorePartialFactoryFailureKeepsGoing(t *testing.T) {
	r, store, pool, factory := newRestoreFixture(t, Config{})
	factory.failFor = map[string]error{"broken": errors.New("spawn failed")}

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "old-1",
		Terminals: []PersistedTerminal{
			{ID: "old-1", Name: "broken", Shell: "/bin/bash"},
			{ID: "old-2", Name: "fine", Shell: "/bin/bash"},
		},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	require.Len(t, factory.created, 1)
	assert.Equal(t, "fine", factory.created[0].name)
	assert.Equal(t, factory.created[0].id, pool.active["p1"],
		"active falls back to the first terminal that did come up")
}

func TestRestoreCorruptLayoutFallsBackToDefault(t *testing.T) {
	r, store, pool, factory := newRestoreFixture(t, Config{GlobalShell: "/bin/bash"})

	require.NoError(t, os.MkdirAll(store.Root()+"/terminals", 0o755))
	require.NoError(t, os.WriteFile(store.Path(storage.TerminalLayoutKey("p1")), []byte("{corrupt"), 0o644))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))

	require.Len(t, factory.created, 1, "a broken layout file must still yield a working terminal")
	assert.Equal(t, factory.created[0].id, pool.active["p1"])
}

func TestWarmProjectResolvesByDirectID(t *testing.T) {
	r, store, pool, factory := newRestoreFixture(t, Config{})

	a := &fakeTerminal{id: "live-a", name: "one"}
	b := &fakeTerminal{id: "live-b", name: "two"}
	pool.add("p1", a)
	pool.add("p1", b)

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "live-b",
		Terminals: []PersistedTerminal{
			{ID: "live-a", Name: "one"},
			{ID: "live-b", Name: "two"},
		},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Empty(t, factory.created, "warm projects recreate nothing")
	assert.Equal(t, "live-b", pool.active["p1"])
}

func TestWarmProjectResolvesByName(t *testing.T) {
	r, store, pool, _ := newRestoreFixture(t, Config{})

	// Live terminals have regenerated IDs; only names survive the restart.
	pool.add("p1", &fakeTerminal{id: "new-1", name: "build"})
	pool.add("p1", &fakeTerminal{id: "new-2", name: "server"})

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "A",
		Terminals: []PersistedTerminal{
			{ID: "old-1", Name: "build"},
			{ID: "A", Name: "server"},
		},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "new-2", pool.active["p1"],
		"the live terminal sharing the persisted active record's name is selected")
}

func TestWarmProjectFallsBackToFirstLive(t *testing.T) {
	r, store, pool, _ := newRestoreFixture(t, Config{})

	pool.add("p1", &fakeTerminal{id: "new-1", name: "renamed"})
	pool.add("p1", &fakeTerminal{id: "new-2", name: "also-renamed"})

	require.NoError(t, store.Write(storage.TerminalLayoutKey("p1"), PersistedLayout{
		ActiveTerminalID: "A",
		Terminals:        []PersistedTerminal{{ID: "A", Name: "gone"}},
	}))

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "new-1", pool.active["p1"],
		"a project with live terminals always ends with one selected")
}

func TestWarmProjectWithNoLayoutStillSelects(t *testing.T) {
	r, _, pool, _ := newRestoreFixture(t, Config{})
	pool.add("p1", &fakeTerminal{id: "only", name: "one"})

	require.NoError(t, r.RestoreProject(context.Background(), "p1"))
	assert.Equal(t, "only", pool.active["p1"])
}

func TestRestoringFlagLifecycle(t *testing.T) {
	r, _, _, factory := newRestoreFixture(t, Config{})
	factory.failFor = map[string]error{"Terminal 1": errors.New("no pty")}

	assert.False(t, r.Restoring())
	err := r.RestoreProject(context.Background(), "p1")
	require.Error(t, err, "total creation failure is the one reported error")
	assert.False(t, r.Restoring(), "flag clears on failure too")
}

func BenchmarkCaptureLayout(b *testing.B) {
	lines := make([]string, 2000)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i)
	}
	terminals := []LiveTerminal{
		&fakeTerminal{id: "t1", name: "one", buf: &fakeBuffer{lines: lines}},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CaptureLayout(terminals, "t1", 1000)
	}
}
