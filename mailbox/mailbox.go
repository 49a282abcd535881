// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package mailbox implements the bounded, thread-safe FIFO with timed
// receive that spec §6 calls the Mailbox<T> primitive: assumed
// available externally, its contract specified but its implementation
// left out of the core. This is a concrete default implementation so
// the rest of natscore compiles and can be tested end to end.
//
// The lock/condition-variable discipline follows the teacher's
// calltr package (calltr/callentry_lst.go, calltr/regentry_lst.go):
// one mutex guards a fixed-capacity structure shared by exactly two
// goroutines. Go's channels are the idiomatic expression of that same
// discipline (a channel is a mutex-protected ring buffer with built-in
// condition variables), so the FIFO itself is a buffered channel; the
// mutex below only guards the closed flag and the one-shot close
// signal, mirroring how calltr's CallEntryLst.lock guards list
// mutation distinct from the per-entry state.
package mailbox

import (
	"sync"
	"time"
)

// Closed is returned by Send once a Mailbox has been closed, and by
// Receive once it has been closed and nothing is left queued.
type Closed struct{}

func (Closed) Error() string { return "mailbox closed" }

// Timeout is returned by Receive when the deadline elapses with
// nothing delivered.
type Timeout struct{}

func (Timeout) Error() string { return "mailbox receive timed out" }

// Mailbox is a bounded FIFO of T with blocking Send, timed Receive,
// non-blocking TryReceive and a Close that wakes every blocked
// caller. Capacity is fixed at construction (spec §6).
type Mailbox[T any] struct {
	items chan T

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates a Mailbox with the given bounded capacity. A capacity of
// 0 makes Send block until a concurrent Receive is ready, matching an
// unbuffered rendezvous channel.
func New[T any](capacity int) *Mailbox[T] {
	return &Mailbox[T]{
		items: make(chan T, capacity),
		done:  make(chan struct{}),
	}
}

// Send enqueues v, blocking while the mailbox is full. Returns Closed
// if the mailbox is closed before or while blocked.
func (mb *Mailbox[T]) Send(v T) error {
	select {
	case <-mb.done:
		return Closed{}
	default:
	}
	select {
	case mb.items <- v:
		return nil
	case <-mb.done:
		return Closed{}
	}
}

// TryReceive is a non-blocking receive: ok is false if nothing is
// queued right now (the mailbox may still be open).
func (mb *Mailbox[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-mb.items:
		return v, ok
	default:
		return v, false
	}
}

// Receive blocks up to timeout for an item. timeout <= 0 blocks
// indefinitely (until Close). Returns Timeout on deadline, Closed if
// the mailbox was closed with nothing left queued.
func (mb *Mailbox[T]) Receive(timeout time.Duration) (T, error) {
	var zero T
	// Fast path: something already queued, preferred over a
	// concurrent Close so buffered sends are never lost (spec §5:
	// "pool conservation ... across a complete fetch/reuse cycle").
	select {
	case v, ok := <-mb.items:
		if !ok {
			return zero, Closed{}
		}
		return v, nil
	default:
	}

	var timeoutC <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timeoutC = t.C
	}
	select {
	case v, ok := <-mb.items:
		if !ok {
			return zero, Closed{}
		}
		return v, nil
	case <-mb.done:
		// one more drain attempt: Close and a pending Send can race.
		select {
		case v, ok := <-mb.items:
			if ok {
				return v, nil
			}
		default:
		}
		return zero, Closed{}
	case <-timeoutC:
		return zero, Timeout{}
	}
}

// Close marks the mailbox closed, waking every blocked Send/Receive.
// Idempotent. It does not discard items already queued; use Drain to
// recover them for recycling.
func (mb *Mailbox[T]) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.done)
}

// Drain removes and returns every item currently queued, without
// requiring Close to have been called first. Used at teardown to
// recycle in-flight Messages (spec §4.H disconnect).
func (mb *Mailbox[T]) Drain() []T {
	var out []T
	for {
		select {
		case v, ok := <-mb.items:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

// Len reports the number of items currently queued.
func (mb *Mailbox[T]) Len() int {
	return len(mb.items)
}
