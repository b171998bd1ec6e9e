// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package readiness tracks whether the backing store has been connected.
package readiness

import "sync/atomic"

// State is the process-wide readiness flag. It starts in the connecting
// state and transitions to ready exactly once, on the first successful
// store connection. There is no transition back: a later disconnect is
// surfaced by the store itself, not by this flag.
//
// The connect supervisor is the single writer; request handlers are
// concurrent readers.
type State struct {
	ready atomic.Bool
}

// NewState creates a State in the connecting state.
func NewState() *State {
	return &State{}
}

// MarkReady transitions the state to ready. Calling it again is a no-op.
// It reports whether this call performed the transition.
func (s *State) MarkReady() bool {
	return s.ready.CompareAndSwap(false, true)
}

// Ready reports whether the store connection has been established.
// Safe to call from any goroutine; never blocks.
func (s *State) Ready() bool {
	return s.ready.Load()
}
