// Package session persists terminal layouts and reconstructs them on
// startup and project switches.
//
// Live terminals are owned by the UI layer and reached only through the
// Pool, Factory and BufferReader interfaces; this package never holds a
// reference into UI state. Serialization maps live terminals to persisted
// records, capturing bounded scrollback from each terminal's own buffer.
//
// Restoration runs a small state machine per project switch:
//  1. No live terminals and no persisted layout: create one default
//     terminal via the shell fallback chain and select it.
//  2. No live terminals, layout persisted: recreate every record as a new
//     live terminal with a fresh ID, seed scrollback, map old IDs to new
//     ones, and select the terminal the old active ID maps to.
//  3. Live terminals exist (project kept warm): recreate nothing; resolve
//     the active terminal by ID, then by the persisted active record's
//     name, then fall back to the first live terminal.
//
// A project with at least one terminal always ends with an active
// selection, and a broken layout file degrades to a default terminal
// instead of surfacing an error.
//
// While restoration is in progress the auto-saver suppresses writes, so a
// partially restored layout can never overwrite the real saved one.
package session
