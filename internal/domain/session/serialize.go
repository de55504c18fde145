package session

import (
	"strings"
	"time"
)

// DefaultMaxScrollbackLines bounds captured scrollback per terminal.
const DefaultMaxScrollbackLines = 1000

// CaptureLayout maps live terminals to a persisted layout document.
// Scrollback is read from each terminal's own buffer, bounded to maxLines
// (most recent lines win), with trailing blank lines trimmed and the field
// omitted entirely when nothing remains.
func CaptureLayout(terminals []LiveTerminal, activeID string, maxLines int) PersistedLayout {
	if maxLines <= 0 {
		maxLines = DefaultMaxScrollbackLines
	}

	records := make([]PersistedTerminal, 0, len(terminals))
	for _, t := range terminals {
		records = append(records, PersistedTerminal{
			ID:         t.ID(),
			Name:       t.Name(),
			Shell:      t.Shell(),
			Cwd:        t.WorkingDir(),
			Scrollback: captureScrollback(t.Buffer(), maxLines),
		})
	}

	return PersistedLayout{
		ActiveTerminalID: activeID,
		Terminals:        records,
		UpdatedAt:        time.Now(),
	}
}

func captureScrollback(buf BufferReader, maxLines int) []string {
	if buf == nil {
		return nil
	}

	total := buf.LineCount()
	start := 0
	if total > maxLines {
		start = total - maxLines
	}

	lines := make([]string, 0, total-start)
	for i := start; i < total; i++ {
		lines = append(lines, buf.Line(i))
	}

	// Trailing blank lines carry no information and bloat the document.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}
