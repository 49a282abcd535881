// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import "bytes"

// headerPrefix and headerTerm are the fixed parts of a NATS/1.0 header
// block, see spec §3/§4.B.
var headerPrefix = []byte("NATS/1.0\r\n")
var headerTerm = []byte("\r\n")

// Headers wraps an Appendable holding a NATS/1.0 header block, built
// incrementally with Append and walked (non-destructively, restartably)
// with Iterator. It is embedded in Message for HPUB/HMSG frames, reused
// across messages the same way sipsp's HdrLst reuses its Hdrs slice
// (see parse_headers.go, now folded into this simpler append-only
// design since the wire form here carries no typed header list, only
// ordered name:value pairs with duplicates allowed).
type Headers struct {
	buf Appendable
}

// Reset clears the header block; the next Append will re-emit the
// NATS/1.0 prefix.
func (h *Headers) Reset() {
	if !h.buf.Allocated() {
		h.buf.Init(DefaultRound)
		return
	}
	h.buf.Reset()
}

// Body returns the raw header block bytes, or nil when empty.
func (h *Headers) Body() []byte {
	return h.buf.Body()
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func trimASCIISpace(b []byte) []byte {
	i := 0
	for i < len(b) && isASCIISpace(b[i]) {
		i++
	}
	j := len(b)
	for j > i && isASCIISpace(b[j-1]) {
		j--
	}
	return b[i:j]
}

// Append adds one name:value field to the header block, per spec
// §4.B: trim ASCII whitespace from both, reject empty results, emit
// the NATS/1.0 prefix on first use, and keep the trailing \r\n\r\n
// terminator intact by shrinking it before the new field and
// re-appending it after.
func (h *Headers) Append(name, value []byte) Error {
	n := trimASCIISpace(name)
	v := trimASCIISpace(value)
	if len(n) == 0 {
		return ErrBadName
	}
	if len(v) == 0 {
		return ErrBadValue
	}
	if !h.buf.Allocated() {
		h.buf.Init(DefaultRound)
	}
	if h.buf.Len() == 0 {
		if err := h.buf.Append(headerPrefix); err != ErrOk {
			return err
		}
	} else {
		if err := h.buf.Shrink(len(headerTerm)); err != ErrOk {
			return err
		}
	}
	if err := h.buf.Append(n); err != ErrOk {
		return err
	}
	if err := h.buf.Append([]byte(":")); err != ErrOk {
		return err
	}
	if err := h.buf.Append(v); err != ErrOk {
		return err
	}
	if err := h.buf.Append(headerTerm); err != ErrOk {
		return err
	}
	return h.buf.Append(headerTerm)
}

// Field is one decoded (name, value) pair yielded by Iterator.
type Field struct {
	Name  []byte
	Value []byte
}

// HeaderIter walks a Headers block's (name, value) pairs in insertion
// order, skipping the NATS/1.0 status line and stopping at the empty
// terminator line. Non-consuming: the same Headers can be iterated
// repeatedly.
type HeaderIter struct {
	body []byte
	pos  int
}

// Iterator returns a restartable iterator over h's fields. Fails with
// ErrNoHeaders if the block is empty.
func (h *Headers) Iterator() (HeaderIter, Error) {
	body := h.buf.Body()
	if body == nil {
		return HeaderIter{}, ErrNoHeaders
	}
	nl := bytes.IndexByte(body, '\n')
	if nl < 0 {
		return HeaderIter{}, ErrMalformedFrame
	}
	return HeaderIter{body: body, pos: nl + 1}, ErrOk
}

// Next advances the iterator and returns the next field. ok is false
// once the terminator line is reached.
func (it *HeaderIter) Next() (f Field, ok bool) {
	if it.pos >= len(it.body) {
		return Field{}, false
	}
	line := it.body[it.pos:]
	nl := bytes.IndexByte(line, '\n')
	if nl < 0 {
		return Field{}, false
	}
	raw := line[:nl] // includes trailing \r if present
	it.pos += nl + 1
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	if len(raw) == 0 {
		// empty terminator line: end of block
		return Field{}, false
	}
	colon := bytes.IndexByte(raw, ':')
	if colon < 0 {
		return Field{}, false
	}
	return Field{Name: raw[:colon], Value: trimASCIISpace(raw[colon+1:])}, true
}
