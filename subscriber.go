// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"sync"
	"time"
)

// state is the Subscriber lifecycle (spec §4.H): Fresh -> Running ->
// Stopping -> Stopped. Modeled as a small enum guarded by a mutex
// rather than atomics, since transitions also gate goroutine
// start/join, not just a flag read — the same closedLock discipline as
// the pack's nats subscriber wrapper (backend-kit/pubsub/nats), simpler
// than the teacher's SIP dialog state machine (calltr/state_machine.go)
// because there is no retransmission/event-classification logic to
// carry over, only connect/disconnect.
type state uint8

const (
	stateFresh state = iota
	stateRunning
	stateStopping
	stateStopped
)

// Subscriber orchestrates connect, subscribe/unsubscribe, the
// background reader goroutine, and the fetch/reuse consumer API (spec
// §4.H). Exactly two logical threads touch a live Subscriber: the
// consumer goroutine (Subscribe/Unsubscribe/Fetch/Reuse/Publish) and
// the reader goroutine this type spawns internally (spec §5).
type Subscriber struct {
	mu    sync.Mutex
	st    state
	conn  *Connection
	fmt   Formatter
	free  *freePool
	deliv *deliveryQueue

	stopOnce sync.Once
	stopCh   chan struct{} // the "attention" edge-triggered stop signal (spec §5)
	readerWG sync.WaitGroup
}

// NewSubscriber constructs a Subscriber in state Fresh. Call Connect
// to actually dial and start the reader goroutine.
func NewSubscriber() *Subscriber {
	return &Subscriber{st: stateFresh}
}

// Connect dials opts via dial, spawns the reader goroutine, and
// transitions Fresh -> Running (spec §4.H). dial is the out-of-scope
// transport/TLS-handshake collaborator (spec §1); the Subscriber only
// needs the resulting Transport. On failure no background goroutine is
// left running.
func (s *Subscriber) Connect(opts ConnectOptions, dial func(ConnectOptions) (Transport, error)) Error {
	s.mu.Lock()
	if s.st != stateFresh {
		s.mu.Unlock()
		return ErrBug
	}
	s.mu.Unlock()

	t, err := dial(opts)
	if err != nil {
		return ErrClosed
	}
	conn := NewConnection(t)

	payload, merr := opts.MarshalConnect()
	if merr != nil {
		t.Close()
		return ErrMalformedFrame
	}
	if err := conn.WriteFrame(s.fmt.FormatConnect(payload)); err != ErrOk {
		t.Close()
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.free = newFreePool()
	s.deliv = newDeliveryQueue(1024)
	s.stopCh = make(chan struct{})
	s.stopOnce = sync.Once{}
	s.st = stateRunning
	s.mu.Unlock()

	s.readerWG.Add(1)
	go s.readLoop()
	return ErrOk
}

// readLoop is the reader goroutine (spec §4.H / §5): repeatedly calls
// Connection.ReadMessage, pushes successes to the delivery mailbox,
// and on any error raises attention and exits. If the push itself
// fails (mailbox closed mid-shutdown) the Message goes back to the
// free pool instead of leaking.
func (s *Subscriber) readLoop() {
	defer s.readerWG.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		m, err := s.conn.ReadMessage(s.free)
		if err != ErrOk {
			if m != nil {
				s.free.Release(m)
			}
			s.raiseAttention()
			s.deliv.signalClosed()
			return
		}
		if perr := s.deliv.push(m); perr != nil {
			s.free.Release(m)
			return
		}
	}
}

func (s *Subscriber) raiseAttention() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Subscribe emits a SUB frame (spec §4.H): purely client->server,
// server-level errors surface as inbound -ERR Messages via Fetch.
func (s *Subscriber) Subscribe(subject, queue, sid []byte) Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatSub(subject, queue, sid))
}

// Unsubscribe emits an UNSUB frame (spec §4.H).
func (s *Subscriber) Unsubscribe(sid []byte, maxMsgs uint32, hasMax bool) Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatUnsub(sid, maxMsgs, hasMax))
}

// Publish emits a PUB frame.
func (s *Subscriber) Publish(subject, reply, payload []byte) Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatPub(subject, reply, payload))
}

// PublishWithHeaders emits an HPUB frame. headerBlock must be a
// well-formed NATS/1.0 block, e.g. built with a Headers value's Append
// calls and read back via Body().
func (s *Subscriber) PublishWithHeaders(subject, reply, headerBlock, payload []byte) Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatHPub(subject, reply, headerBlock, payload))
}

// Ping emits a bare PING frame (SPEC_FULL.md §4: no automatic keepalive
// timer is run here, reconnection/liveness policy being out of scope).
func (s *Subscriber) Ping() Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatPing())
}

// Pong emits a bare PONG frame, answering a server PING.
func (s *Subscriber) Pong() Error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	return conn.WriteFrame(s.fmt.FormatPong())
}

// Fetch blocks on the delivery mailbox up to timeout and returns one
// Message, or ErrTimeout, or ErrClosed (spec §4.H). ErrClosed covers
// every end of the connection: before Connect, after Disconnect, and
// once the reader goroutine has stopped on an error and the queued
// Messages are consumed; there is no separate "disconnected" error.
// timeout <= 0 blocks indefinitely.
func (s *Subscriber) Fetch(timeout time.Duration) (*Message, Error) {
	s.mu.Lock()
	deliv := s.deliv
	s.mu.Unlock()
	if deliv == nil {
		return nil, ErrClosed
	}
	return deliv.fetch(timeout)
}

// Reuse returns m to the free pool. The caller must not touch m
// afterwards (spec §4.H).
func (s *Subscriber) Reuse(m *Message) {
	s.mu.Lock()
	free := s.free
	s.mu.Unlock()
	if free == nil {
		m.Free()
		return
	}
	free.Release(m)
}

// Disconnect idempotently signals the reader to stop, joins it, drains
// both mailboxes (freeing every Message still queued), closes the
// transport and transitions to Stopped (spec §4.H).
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	if s.st == stateStopped || s.st == stateStopping {
		s.mu.Unlock()
		return
	}
	s.st = stateStopping
	conn := s.conn
	free := s.free
	deliv := s.deliv
	s.mu.Unlock()

	s.raiseAttention()
	if conn != nil {
		conn.Close() // unblocks a reader parked in a transport read
	}
	s.readerWG.Wait()

	if deliv != nil {
		for _, m := range *deliv.close() {
			m.Free()
		}
	}
	if free != nil {
		free.close()
	}

	s.mu.Lock()
	s.st = stateStopped
	s.mu.Unlock()
}
