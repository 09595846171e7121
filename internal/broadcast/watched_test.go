/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package broadcast

import (
	"testing"
	"time"
)

func TestWatchedGetReturnsLatest(t *testing.T) {
	w := NewWatched(1)
	v, ver := w.Get()
	if v != 1 || ver != 0 {
		t.Fatalf("initial Get() = (%d, %d), want (1, 0)", v, ver)
	}

	w.Set(2)
	v, ver = w.Get()
	if v != 2 || ver != 1 {
		t.Fatalf("Get() after Set(2) = (%d, %d), want (2, 1)", v, ver)
	}
}

func TestWatchedWaitChangedReturnsOnSet(t *testing.T) {
	w := NewWatched("a")
	done := make(chan struct{})

	result := make(chan string, 1)
	go func() {
		v, _, ok := w.WaitChanged(0, done)
		if !ok {
			return
		}
		result <- v
	}()

	w.Set("b")

	select {
	case v := <-result:
		if v != "b" {
			t.Fatalf("WaitChanged returned %q, want %q", v, "b")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("WaitChanged did not return after Set")
	}
}

func TestWatchedWaitChangedUnblocksOnDone(t *testing.T) {
	w := NewWatched(0)
	done := make(chan struct{})
	close(done)

	_, ver, ok := w.WaitChanged(0, done)
	if ok {
		t.Fatalf("expected ok=false when done is already closed, got ver=%d", ver)
	}
}
