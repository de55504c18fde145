package terminal

import (
	"strings"
	"sync"
)

// Buffer is a thread-safe, bounded line buffer for terminal output. It
// implements session.BufferReader for scrollback capture. When the bound is
// exceeded the oldest lines are dropped.
type Buffer struct {
	mu       sync.RWMutex
	lines    []string
	partial  string
	maxLines int
}

// NewBuffer creates a buffer keeping at most maxLines complete lines.
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = 1000
	}
	return &Buffer{maxLines: maxLines}
}

// Seed preloads restored scrollback before any live output arrives.
func (b *Buffer) Seed(lines []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, lines...)
	b.trim()
}

// Write appends raw terminal output, splitting it into lines. Carriage
// returns are dropped; an unterminated tail is kept as a partial line.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	text := b.partial + strings.ReplaceAll(string(p), "\r", "")
	parts := strings.Split(text, "\n")
	b.partial = parts[len(parts)-1]
	b.lines = append(b.lines, parts[:len(parts)-1]...)
	b.trim()
	return len(p), nil
}

// LineCount returns the number of readable lines, the partial tail
// included.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.lines)
	if b.partial != "" {
		n++
	}
	return n
}

// Line returns the line at index i, oldest first.
func (b *Buffer) Line(i int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < len(b.lines) {
		return b.lines[i]
	}
	return b.partial
}

// caller holds b.mu
func (b *Buffer) trim() {
	if len(b.lines) > b.maxLines {
		b.lines = b.lines[len(b.lines)-b.maxLines:]
	}
}
