package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/gnoviawan/termul-sub001/internal/infrastructure/logging"
	"github.com/gnoviawan/termul-sub001/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// rename is the commit point of the write sequence, indirected so crash
// tests can stop the sequence right before it.
var rename = os.Rename

// Store is the durable key->JSON-document store. It exclusively owns the
// files under its root; every other component persists through it.
type Store struct {
	root    string
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a store rooted at dir. The directory is created lazily on the
// first write. A nil logger is replaced with a no-op logger.
func New(dir string, log *logging.Logger) *Store {
	return &Store{
		root: dir,
		log:  logging.OrNop(log).Named("store"),
	}
}

// SetMetrics attaches a metrics handle. Safe to leave unset.
func (s *Store) SetMetrics(m *monitoring.Metrics) { s.metrics = m }

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// Path returns the on-disk file path for a key. Panics on an invalid key.
func (s *Store) Path(key string) string {
	mustValidateKey(key)
	return filepath.Join(s.root, filepath.FromSlash(key)+".json")
}

// Read decodes the committed document for key into out. A missing file
// returns ErrNotFound; a malformed document returns a *ParseError.
func (s *Store) Read(key string, out any) error {
	data, err := s.ReadRaw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.metrics.RecordRead("parse_error")
		return &ParseError{Key: key, Path: s.Path(key), Err: err}
	}
	return nil
}

// ReadRaw returns the committed document bytes for key.
func (s *Store) ReadRaw(key string) ([]byte, error) {
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.metrics.RecordRead("not_found")
			return nil, ErrNotFound
		}
		s.metrics.RecordRead("error")
		return nil, &WriteError{Key: key, Op: "read", Err: err}
	}
	if !json.Valid(data) {
		s.metrics.RecordRead("parse_error")
		return nil, &ParseError{Key: key, Path: path, Err: errors.New("invalid JSON")}
	}
	s.metrics.RecordRead("ok")
	return data, nil
}

// Write commits doc for key using the atomic sequence: stage the serialized
// document in <path>.tmp, move any existing file to <path>.backup
// (best-effort), then rename the temp file onto the final path. The rename
// is the single commit point; on any earlier failure the temp file is
// removed and the previous document is left intact.
func (s *Store) Write(key string, doc any) error {
	path := s.Path(key)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		werr := &WriteError{Key: key, Op: "mkdir", Err: err}
		s.metrics.RecordWrite(0, werr)
		return werr
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		werr := &WriteError{Key: key, Op: "marshal", Err: err}
		s.metrics.RecordWrite(0, werr)
		return werr
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		werr := &WriteError{Key: key, Op: "stage", Err: err}
		s.metrics.RecordWrite(0, werr)
		return werr
	}

	// Keep the superseded document as a backup. Failure here must not
	// abort the write.
	if _, err := os.Stat(path); err == nil {
		if err := rename(path, path+".backup"); err != nil {
			s.log.Warn("backup rename failed",
				zap.String("key", key), zap.Error(err))
			s.metrics.RecordBackupFailure()
		}
	}

	if err := rename(tmp, path); err != nil {
		os.Remove(tmp)
		werr := &WriteError{Key: key, Op: "commit", Err: err}
		s.metrics.RecordWrite(0, werr)
		return werr
	}

	s.metrics.RecordWrite(len(data), nil)
	s.log.Debug("document committed",
		zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Remove deletes the committed document for key. Removing a key that does
// not exist succeeds; the most recent .backup sibling is left in place.
func (s *Store) Remove(key string) error {
	path := s.Path(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &WriteError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// Exists reports whether a committed document exists for key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}
