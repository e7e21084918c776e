// Package transcript assembles partial and final transcript events into
// the two values the live page displays: a volatile partial string and an
// append-only final string.
package transcript

import (
	"strings"
	"sync"
)

// Assembler merges interleaved partial/final transcript events.
// Thread-safe for concurrent access.
//
// Rules:
//   - a partial event replaces the partial text wholesale
//   - a non-empty final event clears the partial and appends to the final
//     text with a single separating space
//   - the final text never shrinks except via Reset
type Assembler struct {
	mu      sync.RWMutex
	partial string
	final   string
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Apply folds one transcript event into the state.
func (a *Assembler) Apply(text string, isPartial bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if isPartial {
		a.partial = text
		return
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	a.partial = ""
	if a.final == "" {
		a.final = trimmed
	} else {
		a.final = strings.TrimSpace(a.final) + " " + trimmed
	}
}

// Partial returns the latest unconfirmed segment.
func (a *Assembler) Partial() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.partial
}

// Final returns the accumulated confirmed transcript.
func (a *Assembler) Final() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.final
}

// Reset clears both values. Called exactly once per capture session, at
// the moment a new session starts.
func (a *Assembler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.partial = ""
	a.final = ""
}
