// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import "testing"

func TestFreePoolAcquireAllocatesWhenEmpty(t *testing.T) {
	p := newFreePool()
	m := p.Acquire()
	if m == nil {
		t.Fatal("Acquire() on empty pool returned nil")
	}
}

func TestFreePoolAcquireRecyclesReleased(t *testing.T) {
	p := newFreePool()
	m := p.Acquire()
	m.Reset(KindPub)
	m.Subject.Append([]byte("marker"))
	p.Release(m)

	got := p.Acquire()
	if string(got.Subject.Body()) != "marker" {
		t.Fatalf("Acquire() after Release did not return the recycled Message: %q", got.Subject.Body())
	}
}

func TestDeliveryQueuePushAndFetch(t *testing.T) {
	q := newDeliveryQueue(4)
	m := newMessage()
	m.Reset(KindMsg)
	if err := q.push(m); err != nil {
		t.Fatalf("push: %v", err)
	}
	got, ferr := q.fetch(0)
	if ferr != ErrOk {
		t.Fatalf("fetch: %v", ferr)
	}
	if got != m {
		t.Fatal("fetch did not return the pushed Message")
	}
}

func TestDeliveryQueueSignalClosedPreservesQueuedItems(t *testing.T) {
	q := newDeliveryQueue(4)
	m := newMessage()
	q.push(m)
	q.signalClosed()

	got, ferr := q.fetch(0)
	if ferr != ErrOk {
		t.Fatalf("fetch after signalClosed should still return the queued item, got err=%v", ferr)
	}
	if got != m {
		t.Fatal("fetch after signalClosed returned the wrong Message")
	}

	if _, ferr := q.fetch(0); ferr != ErrClosed {
		t.Fatalf("fetch once drained = %v, want ErrClosed", ferr)
	}
}

func TestDeliveryQueueCloseDrainsAndRejectsFetch(t *testing.T) {
	q := newDeliveryQueue(4)
	q.push(newMessage())
	q.push(newMessage())

	drained := q.close()
	if len(*drained) != 2 {
		t.Fatalf("close() drained %d items, want 2", len(*drained))
	}
	if _, err := q.fetch(0); err != ErrClosed {
		t.Fatalf("fetch after close = %v, want ErrClosed", err)
	}
}
