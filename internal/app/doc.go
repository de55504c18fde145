// Package app wires the persistence engine together and owns its
// lifecycle.
//
// Startup order matters: the pending-rollback check and schema migrations
// run before any other component reads persisted documents, then window
// state and project layouts are restored. Shutdown flushes every pending
// debounced write before terminals are torn down; skipping the flush loses
// the most recent mutations.
//
// All services are constructed here and injected explicitly; nothing in
// the engine reaches for a global singleton, so tests build fresh
// instances per case.
package app
