// Package terminal is the pty-backed implementation of the restoration
// engine's terminal collaborators: a live-terminal factory that can seed
// restored scrollback, a bounded line buffer exposed to serialization, and
// an in-memory pool of live terminals keyed by project.
//
// Everything else about terminal emulation (rendering, input handling,
// process lifecycle UI) lives outside the engine; this package only spawns
// the shell and buffers its output.
package terminal
