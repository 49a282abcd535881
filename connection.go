// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"bufio"
	"sync"
)

// Connection owns the Transport (spec §4.G): WriteFrame is safe for
// concurrent callers (an internal mutex serializes whole frames, the
// same "assume the lock is held" discipline as gnatsd's
// client.sendProto under c.mu), while ReadMessage is single-threaded —
// only the Subscriber's reader goroutine may call it, so it needs no
// locking of its own.
type Connection struct {
	transport Transport
	reader    *bufio.Reader

	writeMu sync.Mutex

	lastInfoMu sync.Mutex
	lastInfo   []byte // most recent INFO frame's raw JSON, see SPEC_FULL.md §4
}

// NewConnection wraps an already-dialed Transport. Dialing itself
// (TCP connect, TLS handshake) is out of scope (spec §1); callers hand
// in a ready-to-use Transport.
func NewConnection(t Transport) *Connection {
	return &Connection{
		transport: t,
		reader:    bufio.NewReaderSize(t, MaxControlLine),
	}
}

// WriteFrame writes bytes to the transport atomically with respect to
// other WriteFrame callers: the transport may accept partial writes,
// so this retries until the whole frame is written, all under a single
// mutex acquisition (spec §4.F/§4.G).
func (c *Connection) WriteFrame(b []byte) Error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for len(b) > 0 {
		n, err := c.transport.Write(b)
		if err != nil {
			return ErrIO
		}
		b = b[n:]
	}
	return ErrOk
}

// ReadMessage decodes the next frame off the transport into a Message
// drawn from pool (spec §4.G/§4.E driving-loop contract). It is the
// only place Connection touches the free pool, and must only ever be
// called from the Subscriber's single reader goroutine.
func (c *Connection) ReadMessage(pool *freePool) (*Message, Error) {
	m := pool.Acquire()
	if err := ParseFrame(c.reader, m); err != ErrOk {
		return m, err
	}
	if m.kind == KindInfo {
		c.lastInfoMu.Lock()
		c.lastInfo = append(c.lastInfo[:0], m.Text.Body()...)
		c.lastInfoMu.Unlock()
	}
	return m, ErrOk
}

// LastInfo returns the most recently observed INFO frame's raw JSON
// bytes, or nil if none has arrived yet (SPEC_FULL.md §4).
func (c *Connection) LastInfo() []byte {
	c.lastInfoMu.Lock()
	defer c.lastInfoMu.Unlock()
	if len(c.lastInfo) == 0 {
		return nil
	}
	out := make([]byte, len(c.lastInfo))
	copy(out, c.lastInfo)
	return out
}

// Close closes the underlying transport. Safe to call concurrently
// with a blocked ReadMessage: the read will unblock with ErrIO/ErrClosed
// once the transport reports the close.
func (c *Connection) Close() error {
	return c.transport.Close()
}
