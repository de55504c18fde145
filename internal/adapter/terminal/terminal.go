package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/gnoviawan/termul-sub001/internal/domain/session"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/shared/id"
	"go.uber.org/zap"
)

// Terminal is one live shell behind a pty. It implements
// session.LiveTerminal.
type Terminal struct {
	id         string
	name       string
	shell      string
	workingDir string
	buf        *Buffer

	cmd  *exec.Cmd
	ptmx *os.File

	mu     sync.Mutex
	closed bool
}

func (t *Terminal) ID() string                   { return t.id }
func (t *Terminal) Name() string                 { return t.name }
func (t *Terminal) Shell() string                { return t.shell }
func (t *Terminal) WorkingDir() string           { return t.workingDir }
func (t *Terminal) Buffer() session.BufferReader { return t.buf }

// WriteInput sends data to the shell.
func (t *Terminal) WriteInput(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("terminal %s closed", t.id)
	}
	_, err := t.ptmx.Write(data)
	return err
}

// Resize adjusts the pty dimensions.
func (t *Terminal) Resize(cols, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("terminal %s closed", t.id)
	}
	return pty.Setsize(t.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Close terminates the shell and releases the pty. Idempotent.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.ptmx != nil {
		t.ptmx.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		t.cmd.Process.Kill()
		t.cmd.Wait()
	}
	return nil
}

// Manager owns the live terminals for every project. It implements both
// session.Pool and session.Factory.
type Manager struct {
	maxScrollback int
	log           *logging.Logger

	mu        sync.RWMutex
	terminals map[string][]*Terminal
	active    map[string]string
}

// NewManager creates an empty terminal pool.
func NewManager(maxScrollback int, log *logging.Logger) *Manager {
	return &Manager{
		maxScrollback: maxScrollback,
		log:           logging.OrNop(log).Named("terminal"),
		terminals:     make(map[string][]*Terminal),
		active:        make(map[string]string),
	}
}

// TerminalsFor returns the live terminals of a project, creation order.
func (m *Manager) TerminalsFor(projectID string) []session.LiveTerminal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]session.LiveTerminal, len(m.terminals[projectID]))
	for i, t := range m.terminals[projectID] {
		out[i] = t
	}
	return out
}

// SetActive marks the active terminal for a project.
func (m *Manager) SetActive(projectID, terminalID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[projectID] = terminalID
}

// ActiveTerminal returns the active terminal ID for a project.
func (m *Manager) ActiveTerminal(projectID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[projectID]
}

// Create spawns the shell behind a pty, seeds restored scrollback into the
// buffer before any live output lands, and registers the terminal with the
// pool under spec.ProjectID. Implements session.Factory.
func (m *Manager) Create(ctx context.Context, spec session.CreateSpec) (session.LiveTerminal, error) {
	projectID := spec.ProjectID
	shell := spec.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}
	workingDir := spec.WorkingDir
	if workingDir == "" {
		workingDir = os.Getenv("HOME")
	}

	cmd := exec.CommandContext(ctx, shell)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, fmt.Errorf("start pty for %q: %w", shell, err)
	}

	buf := NewBuffer(m.maxScrollback)
	buf.Seed(spec.SeedScrollback)

	t := &Terminal{
		id:         id.NewTerminalID().String(),
		name:       spec.Name,
		shell:      shell,
		workingDir: workingDir,
		buf:        buf,
		cmd:        cmd,
		ptmx:       ptmx,
	}

	m.mu.Lock()
	m.terminals[projectID] = append(m.terminals[projectID], t)
	m.mu.Unlock()

	go m.readOutput(t)

	m.log.Info("terminal created",
		zap.String("project", projectID),
		zap.String("id", t.id),
		zap.String("shell", shell))
	return t, nil
}

// CloseTerminal closes one terminal and drops it from the pool.
func (m *Manager) CloseTerminal(projectID, terminalID string) error {
	m.mu.Lock()
	var target *Terminal
	list := m.terminals[projectID]
	for i, t := range list {
		if t.id == terminalID {
			target = t
			m.terminals[projectID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if m.active[projectID] == terminalID {
		delete(m.active, projectID)
	}
	m.mu.Unlock()

	if target == nil {
		return nil
	}
	return target.Close()
}

// CloseAll shuts down every terminal; used on application exit after the
// final layout flush.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	var all []*Terminal
	for _, list := range m.terminals {
		all = append(all, list...)
	}
	m.terminals = make(map[string][]*Terminal)
	m.active = make(map[string]string)
	m.mu.Unlock()

	for _, t := range all {
		t.Close()
	}
}

func (m *Manager) readOutput(t *Terminal) {
	buf := make([]byte, 4096)
	for {
		n, err := t.ptmx.Read(buf)
		if n > 0 {
			t.buf.Write(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				m.log.Debug("pty read ended", zap.String("id", t.id), zap.Error(err))
			}
			return
		}
	}
}
