// Copyright 2019-2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package natscore

import "io"

// Transport is the reliable bidirectional byte-stream abstraction the
// core runs on (spec §6). Any net.Conn (plain TCP or tls.Conn) already
// satisfies it; tests substitute an in-memory fake (net.Pipe, or a
// canned byte-slice reader with a discarding writer), the way sipsp's tests feed ParseSIPMsg canned
// byte slices instead of a real socket.
type Transport interface {
	io.Reader
	io.Writer
	Close() error
}
