// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package mailbox

import (
	"testing"
	"time"
)

func TestSendReceiveFIFO(t *testing.T) {
	mb := New[int](4)
	for i := 0; i < 4; i++ {
		if err := mb.Send(i); err != nil {
			t.Fatalf("Send(%d) failed: %v", i, err)
		}
	}
	for i := 0; i < 4; i++ {
		v, err := mb.Receive(time.Second)
		if err != nil {
			t.Fatalf("Receive() failed: %v", err)
		}
		if v != i {
			t.Errorf("Receive() = %d, want %d (FIFO order)", v, i)
		}
	}
}

func TestReceiveTimeout(t *testing.T) {
	mb := New[int](1)
	_, err := mb.Receive(10 * time.Millisecond)
	if _, ok := err.(Timeout); !ok {
		t.Errorf("Receive() on empty mailbox err = %v, want Timeout", err)
	}
}

func TestReceiveNoTimeoutUnblocksOnClose(t *testing.T) {
	mb := New[int](1)
	done := make(chan struct{})
	var gotErr error
	go func() {
		_, gotErr = mb.Receive(0)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	mb.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock after Close")
	}
	if _, ok := gotErr.(Closed); !ok {
		t.Errorf("Receive() after Close err = %v, want Closed", gotErr)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	mb := New[int](1)
	mb.Close()
	if err := mb.Send(1); err == nil {
		t.Error("Send() after Close succeeded, want Closed error")
	}
}

func TestDrainRecoversQueuedItems(t *testing.T) {
	mb := New[int](4)
	mb.Send(1)
	mb.Send(2)
	mb.Send(3)
	items := mb.Drain()
	if len(items) != 3 {
		t.Fatalf("Drain() = %v, want 3 items", items)
	}
	for i, v := range items {
		if v != i+1 {
			t.Errorf("Drain()[%d] = %d, want %d", i, v, i+1)
		}
	}
	if mb.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", mb.Len())
	}
}

func TestTryReceiveNonBlocking(t *testing.T) {
	mb := New[int](1)
	if _, ok := mb.TryReceive(); ok {
		t.Error("TryReceive() on empty mailbox returned ok=true")
	}
	mb.Send(42)
	v, ok := mb.TryReceive()
	if !ok || v != 42 {
		t.Errorf("TryReceive() = (%d, %v), want (42, true)", v, ok)
	}
}
