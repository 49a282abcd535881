// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"bytes"
	"testing"
)

func TestHeadersAppendSingle(t *testing.T) {
	var h Headers
	h.Reset()
	if err := h.Append([]byte("X-Trace"), []byte("abc123")); err != ErrOk {
		t.Fatalf("Append: %v", err)
	}
	want := "NATS/1.0\r\nX-Trace:abc123\r\n\r\n"
	if got := string(h.Body()); got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}

func TestHeadersAppendMultipleAndDuplicate(t *testing.T) {
	var h Headers
	h.Reset()
	h.Append([]byte("Foo"), []byte("1"))
	h.Append([]byte("Foo"), []byte("2"))
	h.Append([]byte("Bar"), []byte("3"))

	it, err := h.Iterator()
	if err != ErrOk {
		t.Fatalf("Iterator: %v", err)
	}
	var got []Field
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, f)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want 3: %+v", len(got), got)
	}
	if string(got[0].Name) != "Foo" || string(got[0].Value) != "1" {
		t.Errorf("field 0 = %+v", got[0])
	}
	if string(got[1].Name) != "Foo" || string(got[1].Value) != "2" {
		t.Errorf("field 1 = %+v", got[1])
	}
	if string(got[2].Name) != "Bar" || string(got[2].Value) != "3" {
		t.Errorf("field 2 = %+v", got[2])
	}
}

func TestHeadersIteratorRestartable(t *testing.T) {
	var h Headers
	h.Reset()
	h.Append([]byte("A"), []byte("1"))

	for i := 0; i < 2; i++ {
		it, err := h.Iterator()
		if err != ErrOk {
			t.Fatalf("Iterator iteration %d: %v", i, err)
		}
		f, ok := it.Next()
		if !ok {
			t.Fatalf("iteration %d: expected one field", i)
		}
		if string(f.Name) != "A" || string(f.Value) != "1" {
			t.Fatalf("iteration %d: field = %+v", i, f)
		}
		if _, ok := it.Next(); ok {
			t.Fatalf("iteration %d: expected exhausted iterator", i)
		}
	}
}

func TestHeadersAppendRejectsEmpty(t *testing.T) {
	var h Headers
	h.Reset()
	if err := h.Append([]byte("  "), []byte("v")); err != ErrBadName {
		t.Fatalf("empty name = %v, want ErrBadName", err)
	}
	if err := h.Append([]byte("n"), []byte(" \t")); err != ErrBadValue {
		t.Fatalf("empty value = %v, want ErrBadValue", err)
	}
}

func TestHeadersIteratorEmpty(t *testing.T) {
	var h Headers
	h.Reset()
	if _, err := h.Iterator(); err != ErrNoHeaders {
		t.Fatalf("Iterator on empty = %v, want ErrNoHeaders", err)
	}
}

func TestHeadersResetAfterAppend(t *testing.T) {
	var h Headers
	h.Reset()
	h.Append([]byte("A"), []byte("1"))
	h.Reset()
	if h.Body() != nil {
		t.Fatalf("expected empty Body after Reset, got %q", h.Body())
	}
	if err := h.Append([]byte("B"), []byte("2")); err != ErrOk {
		t.Fatalf("Append after Reset: %v", err)
	}
	want := "NATS/1.0\r\nB:2\r\n\r\n"
	if got := string(h.Body()); got != want {
		t.Fatalf("Body() = %q, want %q", got, want)
	}
}

func TestTrimASCIISpace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  abc  ", "abc"},
		{"\tabc\t", "abc"},
		{"abc", "abc"},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := trimASCIISpace([]byte(c.in)); !bytes.Equal(got, []byte(c.want)) {
			t.Errorf("trimASCIISpace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
