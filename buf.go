// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

// Appendable is an owned, resizable byte buffer reused across messages
// on the hot receive/send path, to avoid a per-frame allocation for
// every subject, header block or payload. It mirrors the way sipsp's
// CallEntry/RegEntry buffers are pre-sized and reused (see
// calltr/alloc.go) instead of being garbage-collected per message.
type Appendable struct {
	buf    []byte
	length int
	round  int
}

// DefaultRound is the allocation granularity used when round is not
// given explicitly to Init.
const DefaultRound = 256

func roundUp(n, round int) int {
	if round <= 0 {
		round = DefaultRound
	}
	return ((n + round - 1) / round) * round
}

// Init allocates round_up(cap, round) bytes and resets length to 0.
// round <= 0 selects DefaultRound. Init can be called again on an
// already allocated Appendable to resize it (dropping prior content),
// matching the way Message.reset() reuses buffers across frames.
func (a *Appendable) Init(capHint int, round ...int) Error {
	r := DefaultRound
	if len(round) > 0 && round[0] > 0 {
		r = round[0]
	}
	size := roundUp(capHint, r)
	buf := make([]byte, size)
	if buf == nil {
		return ErrAllocFailed
	}
	a.buf = buf
	a.length = 0
	a.round = r
	return ErrOk
}

// Cap returns the currently allocated capacity.
func (a *Appendable) Cap() int {
	return cap(a.buf)
}

// Len returns the active length.
func (a *Appendable) Len() int {
	return a.length
}

// Allocated reports whether Init has been called (and Free not since).
func (a *Appendable) Allocated() bool {
	return a.buf != nil
}

// grow ensures at least extra more bytes fit past the current length,
// doubling the capacity (or rounding up to length+extra, whichever is
// larger) when the current allocation is insufficient.
func (a *Appendable) grow(extra int) Error {
	need := a.length + extra
	if need <= cap(a.buf) {
		return ErrOk
	}
	round := a.round
	if round <= 0 {
		round = DefaultRound
	}
	doubled := cap(a.buf) * 2
	target := roundUp(need, round)
	if doubled > target {
		target = doubled
	}
	nb := make([]byte, target)
	if nb == nil {
		return ErrAllocFailed
	}
	copy(nb, a.buf[:a.length])
	a.buf = nb
	return ErrOk
}

// Append copies b onto the tail, growing the buffer if needed. It is a
// no-op on empty input and allocates on first use if Init was not
// called explicitly.
func (a *Appendable) Append(b []byte) Error {
	if len(b) == 0 {
		return ErrOk
	}
	if a.buf == nil {
		if err := a.Init(len(b)); err != ErrOk {
			return err
		}
	} else if err := a.grow(len(b)); err != ErrOk {
		return err
	}
	n := copy(a.buf[a.length:a.length+len(b)], b)
	a.length += n
	return ErrOk
}

// AppendByte appends a single byte, following the same growth policy
// as Append.
func (a *Appendable) AppendByte(b byte) Error {
	return a.Append([]byte{b})
}

// Shrink decreases length by k. It fails with ErrUnderflow if
// k > length.
func (a *Appendable) Shrink(k int) Error {
	if k > a.length {
		return ErrUnderflow
	}
	a.length -= k
	return ErrOk
}

// Reset sets length to 0 without releasing the underlying memory, so
// the next Append reuses the allocation. Fails with ErrNotAllocated if
// Init was never called.
func (a *Appendable) Reset() Error {
	if a.buf == nil {
		return ErrNotAllocated
	}
	a.length = 0
	return ErrOk
}

// Copy is equivalent to Reset followed by Append(b), except on a buffer
// that was never allocated: there it allocates like Append instead of
// failing with ErrNotAllocated.
func (a *Appendable) Copy(b []byte) Error {
	if a.buf != nil {
		if err := a.Reset(); err != ErrOk {
			return err
		}
	}
	return a.Append(b)
}

// Body returns the active prefix [0:length), or nil when length == 0.
func (a *Appendable) Body() []byte {
	if a.length == 0 {
		return nil
	}
	return a.buf[:a.length]
}

// Free releases the underlying memory. Idempotent.
func (a *Appendable) Free() {
	a.buf = nil
	a.length = 0
}
