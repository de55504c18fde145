package terminal

import "testing"

func TestBufferSplitsOutputIntoLines(t *testing.T) {
	b := NewBuffer(100)

	b.Write([]byte("$ ls\r\nfoo bar\npartial"))

	if got := b.LineCount(); got != 3 {
		t.Fatalf("LineCount = %d, want 3", got)
	}
	if b.Line(0) != "$ ls" {
		t.Errorf("Line(0) = %q", b.Line(0))
	}
	if b.Line(1) != "foo bar" {
		t.Errorf("Line(1) = %q", b.Line(1))
	}
	if b.Line(2) != "partial" {
		t.Errorf("Line(2) = %q, want unterminated tail", b.Line(2))
	}

	// Completing the partial line merges it.
	b.Write([]byte(" done\n"))
	if b.Line(2) != "partial done" {
		t.Errorf("Line(2) = %q after completion", b.Line(2))
	}
}

func TestBufferDropsOldestBeyondBound(t *testing.T) {
	b := NewBuffer(3)

	b.Write([]byte("1\n2\n3\n4\n5\n"))

	if got := b.LineCount(); got != 3 {
		t.Fatalf("LineCount = %d, want 3", got)
	}
	if b.Line(0) != "3" || b.Line(2) != "5" {
		t.Errorf("kept lines = %q..%q, want 3..5", b.Line(0), b.Line(2))
	}
}

func TestBufferSeedPrecedesLiveOutput(t *testing.T) {
	b := NewBuffer(100)
	b.Seed([]string{"restored 1", "restored 2"})
	b.Write([]byte("live\n"))

	if got := b.LineCount(); got != 3 {
		t.Fatalf("LineCount = %d, want 3", got)
	}
	if b.Line(0) != "restored 1" {
		t.Errorf("Line(0) = %q, want restored scrollback first", b.Line(0))
	}
	if b.Line(2) != "live" {
		t.Errorf("Line(2) = %q", b.Line(2))
	}
}

func TestManagerPoolBookkeeping(t *testing.T) {
	m := NewManager(100, nil)

	a := &Terminal{id: "t-a", name: "one", buf: NewBuffer(10)}
	bTerm := &Terminal{id: "t-b", name: "two", buf: NewBuffer(10)}
	m.terminals["p1"] = []*Terminal{a, bTerm}

	if got := len(m.TerminalsFor("p1")); got != 2 {
		t.Fatalf("TerminalsFor = %d terminals, want 2", got)
	}

	m.SetActive("p1", "t-b")
	if m.ActiveTerminal("p1") != "t-b" {
		t.Errorf("ActiveTerminal = %q, want t-b", m.ActiveTerminal("p1"))
	}

	if err := m.CloseTerminal("p1", "t-b"); err != nil {
		t.Fatalf("CloseTerminal: %v", err)
	}
	if got := len(m.TerminalsFor("p1")); got != 1 {
		t.Errorf("TerminalsFor after close = %d, want 1", got)
	}
	if m.ActiveTerminal("p1") != "" {
		t.Errorf("closing the active terminal clears the selection")
	}

	// Closing an unknown terminal is a no-op.
	if err := m.CloseTerminal("p1", "missing"); err != nil {
		t.Errorf("CloseTerminal(missing) = %v", err)
	}
}
