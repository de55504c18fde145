package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the key has no committed document on disk.
// This is the expected state on a fresh install, not an operational failure.
var ErrNotFound = errors.New("storage: document not found")

// ParseError indicates the committed document exists but is not valid JSON.
// It is distinct from ErrNotFound so callers can treat corruption specially
// instead of silently initializing defaults.
type ParseError struct {
	Key  string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("storage: parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError indicates an I/O failure during the atomic write sequence.
// The previously committed document, if any, is still intact.
type WriteError struct {
	Key string
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// InvalidKeyError is the panic value raised when a caller passes a malformed
// key. Keys are produced by code, not users, so a bad key is a programming
// error and is never returned as an ordinary error.
type InvalidKeyError struct {
	Key    string
	Reason string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("storage: invalid key %q: %s", e.Key, e.Reason)
}
