package id

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{TerminalPrefix, SnapshotPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.SplitN(id, "_", 2)
		if _, err := ulid.Parse(parts[1]); err != nil {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	termID := NewTerminalID()
	snapID := NewSnapshotID()

	if !strings.HasPrefix(termID.String(), "term_") {
		t.Errorf("TerminalID should start with 'term_', got: %s", termID)
	}
	if !strings.HasPrefix(snapID.String(), "snap_") {
		t.Errorf("SnapshotID should start with 'snap_', got: %s", snapID)
	}
	if NewTerminalID() == termID {
		t.Error("TerminalIDs should be unique")
	}
}

func TestSnapshotIDsSortByCreationTime(t *testing.T) {
	first := NewSnapshotID()
	time.Sleep(2 * time.Millisecond)
	second := NewSnapshotID()

	// ULIDs are k-sortable: an ID minted in a later millisecond always
	// sorts after an earlier one.
	if first.String() > second.String() {
		t.Errorf("expected %s <= %s", first, second)
	}
}

func TestProjectIDIsUUID(t *testing.T) {
	p := NewProjectID()
	if len(p.String()) != 36 {
		t.Errorf("ProjectID should be a canonical UUID, got: %s", p)
	}
}
