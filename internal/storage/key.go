package storage

import "strings"

// Reserved keys used by the engine. Each maps to <root>/<key>.json on disk.
const (
	KeyWindowState      = "window-state"
	KeyProjects         = "projects"
	KeySchemaVersion    = "settings/schema-version"
	KeyLastActive       = "settings/last-active-project"
	KeyMigrationHistory = "settings/migration-history"
	KeyRollbackMetadata = "rollback-metadata"
	KeyRollbackPending  = "rollback-pending"
)

// TerminalLayoutKey returns the layout document key for a project.
func TerminalLayoutKey(projectID string) string {
	return "terminals/" + projectID
}

// SnapshotListKey returns the snapshot list document key for a project.
func SnapshotListKey(projectID string) string {
	return "snapshots/" + projectID
}

// ValidateKey checks a storage key against the key grammar: one or more
// non-empty slash-separated segments, characters limited to
// [A-Za-z0-9_-], and no ".." segments. A nil return means the key is safe
// to join onto the storage root.
func ValidateKey(key string) *InvalidKeyError {
	if key == "" {
		return &InvalidKeyError{Key: key, Reason: "empty key"}
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return &InvalidKeyError{Key: key, Reason: "leading or trailing slash"}
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" {
			return &InvalidKeyError{Key: key, Reason: "empty segment"}
		}
		if seg == ".." || seg == "." {
			return &InvalidKeyError{Key: key, Reason: "relative segment"}
		}
		for _, r := range seg {
			if !isKeyRune(r) {
				return &InvalidKeyError{Key: key, Reason: "character " + string(r) + " not allowed"}
			}
		}
	}
	return nil
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}

// mustValidateKey panics with an *InvalidKeyError on a malformed key.
// Validation always happens before any filesystem access.
func mustValidateKey(key string) {
	if err := ValidateKey(key); err != nil {
		panic(err)
	}
}
