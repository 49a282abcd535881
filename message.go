// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import (
	"github.com/intuitivelabs/bytescase"
)

// Kind is the type used to hold the verb of a parsed or to-be-formatted
// NATS frame, the equivalent of sipsp.SIPMethod for the NATS protocol.
type Kind uint8

// frame kinds
const (
	KindUnknown Kind = iota
	KindInfo
	KindConnect
	KindSub
	KindUnsub
	KindPing
	KindPong
	KindOk
	KindErr
	KindPub
	KindHPub
	KindMsg
	KindHMsg
	kindLast // sentinel, keep last
)

// Kind2Name translates between a numeric Kind and its ASCII verb.
var Kind2Name = [kindLast]string{
	KindUnknown: "",
	KindInfo:    "INFO",
	KindConnect: "CONNECT",
	KindSub:     "SUB",
	KindUnsub:   "UNSUB",
	KindPing:    "PING",
	KindPong:    "PONG",
	KindOk:      "+OK",
	KindErr:     "-ERR",
	KindPub:     "PUB",
	KindHPub:    "HPUB",
	KindMsg:     "MSG",
	KindHMsg:    "HMSG",
}

// String implements the Stringer interface.
func (k Kind) String() string {
	if k >= kindLast {
		return Kind2Name[KindUnknown]
	}
	return Kind2Name[k]
}

// HasHeader reports whether a Message of this Kind may carry a header
// block (HPUB/HMSG only).
func (k Kind) HasHeader() bool {
	return k == KindHPub || k == KindHMsg
}

// HasPayload reports whether a Message of this Kind may carry a
// payload body.
func (k Kind) HasPayload() bool {
	return k == KindPub || k == KindHPub || k == KindMsg || k == KindHMsg
}

// verbByName matches tok (the first whitespace-delimited token of a
// control line, without the CRLF) against the known verbs, the same way
// sipsp.GetMethodNo resolves a SIP method name, but case-insensitively
// per the NATS grammar (verbs are matched case-insensitive on the verb).
// Unknown verbs resolve to KindUnknown.
func verbByName(tok []byte) Kind {
	if len(tok) == 0 {
		return KindUnknown
	}
	switch tok[0] | 0x20 { // fold ASCII case on the first byte cheaply
	case '+':
		if bytescase.CmpEq(tok, []byte("+OK")) {
			return KindOk
		}
	case '-':
		if bytescase.CmpEq(tok, []byte("-ERR")) {
			return KindErr
		}
	case 'i':
		if bytescase.CmpEq(tok, []byte("INFO")) {
			return KindInfo
		}
	case 'c':
		if bytescase.CmpEq(tok, []byte("CONNECT")) {
			return KindConnect
		}
	case 'u':
		if bytescase.CmpEq(tok, []byte("UNSUB")) {
			return KindUnsub
		}
	case 'p':
		switch {
		case bytescase.CmpEq(tok, []byte("PING")):
			return KindPing
		case bytescase.CmpEq(tok, []byte("PONG")):
			return KindPong
		case bytescase.CmpEq(tok, []byte("PUB")):
			return KindPub
		}
	case 's':
		if bytescase.CmpEq(tok, []byte("SUB")) {
			return KindSub
		}
	case 'h':
		switch {
		case bytescase.CmpEq(tok, []byte("HPUB")):
			return KindHPub
		case bytescase.CmpEq(tok, []byte("HMSG")):
			return KindHMsg
		}
	case 'm':
		if bytescase.CmpEq(tok, []byte("MSG")) {
			return KindMsg
		}
	}
	return KindUnknown
}

// Message is a parsed (on receive) or about-to-be-formatted (on send)
// NATS frame. It is allocated once and reused via Reset across the
// lifetime of a Subscriber, the way sipsp.PSIPMsg is reused across
// parse calls: every field is an Appendable that keeps its backing
// array across Reset, so steady-state operation does not allocate.
type Message struct {
	kind    Kind
	Subject Appendable
	Sid     Appendable
	ReplyTo Appendable
	Headers Headers
	Payload Appendable
	// Text holds the single-line argument of frames that are not part
	// of the core subject/sid/reply/payload model: the INFO/CONNECT
	// JSON blob, the -ERR reason string (without its quotes) and the
	// UNSUB max_msgs count. Not named in spec §3's data model (which
	// only anticipates PUB/HPUB/MSG/HMSG payloads); added because INFO,
	// CONNECT, ERR and UNSUB frames still need somewhere to land their
	// one free-form argument (see SPEC_FULL.md §4).
	Text Appendable
}

// Kind returns the frame's verb.
func (m *Message) Kind() Kind {
	return m.kind
}

// Reset clears every field's length to 0 (keeping backing storage) and
// sets kind, preparing the Message to be filled in by the Parser or by
// a caller building an outbound frame.
func (m *Message) Reset(kind Kind) {
	m.kind = kind
	m.Subject.Reset()
	m.Sid.Reset()
	m.ReplyTo.Reset()
	m.Headers.Reset()
	m.Payload.Reset()
	m.Text.Reset()
}

// ensureInit lazily allocates every Appendable field on first use, so a
// freshly-constructed Message (not yet drawn through a pool) still works.
func (m *Message) ensureInit() {
	if !m.Subject.Allocated() {
		m.Subject.Init(64)
	}
	if !m.Sid.Allocated() {
		m.Sid.Init(16)
	}
	if !m.ReplyTo.Allocated() {
		m.ReplyTo.Init(64)
	}
	if !m.Payload.Allocated() {
		m.Payload.Init(256)
	}
	if !m.Text.Allocated() {
		m.Text.Init(128)
	}
}

// Free releases every field's backing storage. Used when a Message is
// permanently retired (e.g. draining the pools at Subscriber.Disconnect).
func (m *Message) Free() {
	m.Subject.Free()
	m.Sid.Free()
	m.ReplyTo.Free()
	m.Headers.buf.Free()
	m.Payload.Free()
	m.Text.Free()
}

// IsAuthError reports whether an ERR-kind Message's reason text names an
// authorization failure, matching the fixed reason strings real NATS
// servers send (gnatsd server/errors.go: "Authorization Violation",
// "Authentication Timeout"), so callers can branch on the
// server-refused-credentials case without parsing the text themselves
// (SPEC_FULL.md §4).
func (m *Message) IsAuthError() bool {
	if m.kind != KindErr {
		return false
	}
	t := m.Text.Body()
	_, ok1 := bytescase.Prefix([]byte("Authorization Violation"), t)
	_, ok2 := bytescase.Prefix([]byte("Authentication Timeout"), t)
	return ok1 || ok2
}

// IsPermissionError reports whether an ERR-kind Message's reason text
// names a subject permission failure (gnatsd: "Permissions Violation").
func (m *Message) IsPermissionError() bool {
	if m.kind != KindErr {
		return false
	}
	_, ok := bytescase.Prefix([]byte("Permissions Violation"), m.Text.Body())
	return ok
}

// newMessage allocates a fresh, ready-to-fill Message, the equivalent of
// the free pool's lazy-population fallback described in spec §5
// ("when a read_message needs a Message and the pool is empty, a fresh
// one is allocated").
func newMessage() *Message {
	m := &Message{}
	m.ensureInit()
	return m
}
