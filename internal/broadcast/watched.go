/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package broadcast implements the two fan-out primitives the player
// daemon shares between the Controller, the ping supervisor, and the
// port layer: a single-writer/many-reader "watched cell" that always
// holds the latest value, and a many-producer/many-consumer broadcast
// channel where slow subscribers may miss messages.
package broadcast

import "sync"

// Watched is a single-writer/many-reader cell: writers overwrite the
// current value, readers observe the latest value and are woken on
// change. Stale values may be skipped by a reader that isn't watching
// continuously — this is the "watched cell" from the glossary.
type Watched[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	changed chan struct{}
}

// NewWatched creates a watched cell seeded with initial.
func NewWatched[T any](initial T) *Watched[T] {
	return &Watched[T]{value: initial, changed: make(chan struct{})}
}

// Set overwrites the current value and wakes every waiting reader.
func (w *Watched[T]) Set(v T) {
	w.mu.Lock()
	w.value = v
	w.version++
	ch := w.changed
	w.changed = make(chan struct{})
	w.mu.Unlock()
	close(ch)
}

// Get returns the current value and its version.
func (w *Watched[T]) Get() (T, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value, w.version
}

// Changed returns a channel that closes the next time Set is called.
func (w *Watched[T]) Changed() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changed
}

// WaitChanged blocks until the value differs from lastVersion, then
// returns the new value and version, or the zero value, lastVersion and
// ok=false if done is closed first.
func (w *Watched[T]) WaitChanged(lastVersion uint64, done <-chan struct{}) (T, uint64, bool) {
	for {
		v, ver := w.Get()
		if ver != lastVersion {
			return v, ver, true
		}
		select {
		case <-w.Changed():
		case <-done:
			var zero T
			return zero, lastVersion, false
		}
	}
}
