// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resp

import "github.com/valyala/bytebufferpool"

// bufPool backs every Parser's internal buffer. Long-lived per-connection
// parsers are exactly the workload bytebufferpool targets: short bursts of
// growth (a large bulk string) followed by long idle stretches, across many
// concurrent connections. Grounded on internal/labels' use of the same pool
// for scratch buffers, generalized here to a buffer that outlives a single
// call instead of being returned immediately.
var bufPool bytebufferpool.Pool

// buffer is the append-only accumulator with a read cursor described in
// SPEC_FULL.md §4.1. Appends are O(1) amortized. Reading a frame's tag byte
// only advances pos; consuming a complete line or an exact payload compacts
// the consumed prefix away (tag byte included) and resets pos to 0.
type buffer struct {
	bb  *bytebufferpool.ByteBuffer
	pos int
}

func newBuffer() *buffer {
	return &buffer{bb: bufPool.Get()}
}

// feed appends p to the buffer.
func (b *buffer) feed(p []byte) {
	b.bb.B = append(b.bb.B, p...)
}

// bytes returns the unconsumed slice, i.e. buf[pos:]. It must not be retained
// past the next mutating call: compact may reuse its backing array.
func (b *buffer) bytes() []byte {
	return b.bb.B[b.pos:]
}

// advance moves the cursor forward without discarding any bytes. Used by
// readOneByte, which has nowhere convenient to compact to (the common case is
// a one-byte type tag immediately followed by more reads of the same frame).
func (b *buffer) advance(n int) {
	b.pos += n
}

// compact drops the first n unconsumed bytes (relative to pos) and resets pos
// to 0, bounding memory to roughly one in-flight frame as specified in §4.1.
func (b *buffer) compact(n int) {
	rest := b.bb.B[b.pos+n:]
	copy(b.bb.B, rest)
	b.bb.B = b.bb.B[:len(rest)]
	b.pos = 0
}

// release returns the backing buffer to the pool. The buffer must not be used
// afterward.
func (b *buffer) release() {
	if b.bb != nil {
		bufPool.Put(b.bb)
		b.bb = nil
	}
}
