// Package storage implements the durable document store and its
// write-behind coalescing layer.
//
// The store maps slash-segmented keys to pretty-printed JSON documents on
// disk, one file per key. Writes are crash-safe: the document is staged in a
// sibling .tmp file and committed with a single atomic rename, with the
// superseded file kept as a .backup sibling. A crash at any point leaves the
// key either at its previous committed document or at the new one, never in
// between.
//
// The Coalescer sits above the store and debounces bursts of writes to the
// same key (window drags, terminal output) into a single disk write carrying
// the most recent document. FlushAll must run on the shutdown path, otherwise
// the last in-flight mutation for any key with a live timer is lost.
//
// Error taxonomy:
//   - ErrNotFound: the key has no committed document (expected on fresh installs)
//   - ParseError: the committed document is not valid JSON
//   - WriteError: an I/O failure during the atomic write sequence
//   - InvalidKeyError: a malformed key; this is a caller bug and panics
//
// Example Usage:
//
//	store := storage.New(dir, logger)
//	err := store.Write("window-state", state)
//	var state WindowState
//	err = store.Read("window-state", &state)
package storage
