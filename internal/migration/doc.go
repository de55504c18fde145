// Package migration runs ordered, versioned schema migrations against the
// durable store.
//
// Migrations are registered in-memory and keyed by version string. A run
// applies every registered migration greater than the current on-disk schema
// version, in ascending comparator order, persisting the schema version
// after each successful step so an interrupted run never repeats completed
// work. Each step appends an immutable record to the persisted history,
// success or failure.
//
// The engine is serialized by a running flag: a concurrent run is rejected
// with ErrAlreadyRunning rather than queued. Run must be invoked once,
// early, before any other component reads persisted documents.
package migration
