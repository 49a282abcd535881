// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"time"

	"github.com/intuitivelabs/natscore/mailbox"
)

// freePool holds recycled Messages available for the reader thread to
// fill (spec §3 "Pools"). It holds at most 4096 Messages (see
// newFreePool) and is lazily populated: Acquire allocates a fresh
// Message when the pool is empty instead of blocking, the same lazy-allocate-on-miss idiom as
// calltr/alloc_pool.go's sync.Pool-backed AllocCallEntry (poolMiss
// path falls back to make()).
type freePool struct {
	mb *mailbox.Mailbox[*Message]
}

func newFreePool() *freePool {
	// capacity is generous but finite; Acquire never blocks, since
	// emptiness is handled by allocating fresh. The capacity bounds how
	// many retired Messages the pool holds: once it is full, Release
	// blocks until Acquire takes one out.
	return &freePool{mb: mailbox.New[*Message](4096)}
}

// Acquire returns a recycled Message if one is queued, otherwise
// allocates a fresh one (spec §5: "free pool is unbounded but lazily
// populated").
func (p *freePool) Acquire() *Message {
	if m, ok := p.mb.TryReceive(); ok {
		return m
	}
	return newMessage()
}

// Release returns m to the pool for reuse. It blocks while the pool is
// full; if the pool is closed (before or while blocked), m is freed
// instead.
func (p *freePool) Release(m *Message) {
	if err := p.mb.Send(m); err != nil {
		// pool closed: nothing to recycle into, drop it.
		m.Free()
	}
}

func (p *freePool) close() {
	p.mb.Close()
	for _, m := range p.mb.Drain() {
		m.Free()
	}
}

// deliveryQueue holds fully-decoded inbound Messages awaiting pickup
// by Subscriber.Fetch (spec §3 "Pools").
type deliveryQueue struct {
	mb *mailbox.Mailbox[*Message]
}

func newDeliveryQueue(capacity int) *deliveryQueue {
	return &deliveryQueue{mb: mailbox.New[*Message](capacity)}
}

func (q *deliveryQueue) push(m *Message) error {
	return q.mb.Send(m)
}

// signalClosed wakes any blocked Fetch with Closed once the queue
// drains, without discarding items already queued (spec §7: a fatal
// reader-thread error must cause *subsequent* fetch calls to return
// Closed, not strand messages the server already sent).
func (q *deliveryQueue) signalClosed() {
	q.mb.Close()
}

func (q *deliveryQueue) fetch(timeout time.Duration) (*Message, Error) {
	m, err := q.mb.Receive(timeout)
	switch err.(type) {
	case nil:
		return m, ErrOk
	case mailbox.Timeout:
		return nil, ErrTimeout
	case mailbox.Closed:
		return nil, ErrClosed
	default:
		return nil, ErrBug
	}
}

func (q *deliveryQueue) close() *[]*Message {
	q.mb.Close()
	drained := q.mb.Drain()
	return &drained
}
