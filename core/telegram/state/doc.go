// Package state keeps per-user conversation sessions between updates.
//
// A Session pairs the current State with a caller-defined payload. Sessions in
// the idle state are not stored: setting one is the same as clearing it.
package state
