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

import (
	"bytes"

	"github.com/packetd/respio/internal/splitio"
)

// readOneByte consumes a single byte, used only to learn a frame's tag. It
// advances the cursor without compacting: a tag byte is always immediately
// followed by more reads against the same frame, so compacting here would
// just be undone on the very next call.
func (p *Parser) readOneByte() (byte, error) {
	b := p.buf.bytes()
	if len(b) == 0 {
		return 0, errNeedMore
	}
	tag := b[0]
	p.buf.advance(1)
	return tag, nil
}

// readLine consumes up to and including the next CRLF (or bare LF, tolerated
// the way splitio.Scanner tolerates it elsewhere in this codebase) and
// returns the content with the terminator stripped. It is all-or-nothing: on
// errNeedMore nothing is consumed, so the caller may retry verbatim once more
// bytes arrive.
func (p *Parser) readLine() ([]byte, error) {
	buf := p.buf.bytes()
	sc := splitio.NewScanner(buf)
	if !sc.Scan() {
		return nil, errNeedMore
	}
	line := sc.Bytes()

	var n int
	switch {
	case bytes.HasSuffix(line, splitio.CharCRLF):
		n = len(line) - 2
	case bytes.HasSuffix(line, splitio.CharLF):
		n = len(line) - 1
	default:
		// Scanner ran out of buffer before finding '\n'.
		return nil, errNeedMore
	}

	out := append([]byte(nil), line[:n]...)
	p.buf.compact(len(line))
	return out, nil
}

// readExact consumes exactly n bytes followed by a trailing CRLF, as used by
// bulk and verbatim strings. n is assumed non-negative; callers must have
// already rejected negative lengths other than the null sentinel.
func (p *Parser) readExact(n int) ([]byte, error) {
	buf := p.buf.bytes()
	need := n + 2
	if len(buf) < need {
		return nil, errNeedMore
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, p.poison(newProtocolErrorf("expected CRLF after %d-byte payload", n))
	}
	out := append([]byte(nil), buf[:n]...)
	p.buf.compact(need)
	return out, nil
}
