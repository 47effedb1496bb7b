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
	"strconv"
	"unicode/utf8"
)

// advance drives f one step further. It returns:
//
//   - (zero, false, errNeedMore) if f needs bytes that are not yet buffered;
//     f keeps the progress already recorded on it (tag, codec, length) and
//     is safe to retry verbatim.
//   - (zero, false, a sticky error) if the wire violated the protocol; the
//     Parser is now poisoned.
//   - (zero, false, nil) if f pushed a new child frame onto the stack for the
//     driver loop to parse next; f itself is not finished.
//   - (value, true, nil) if f is complete.
func (p *Parser) advance(f *frame) (Value, bool, error) {
	if f.tag == 0 {
		b, err := p.readOneByte()
		if err != nil {
			return Value{}, false, err
		}
		if !tagValid[b] {
			err := p.poison(newProtocolErrorf("Protocol Error: %s", lossyByte(b)))
			return Value{}, false, err
		}
		f.tag = b
		f.codec = p.codec
	}

	switch f.tag {
	case tagSimpleString:
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		return p.scalarFrameValue(TypeSimpleString, line, f)
	case tagError:
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		text, _ := errorCodec(f.codec).decode(line)
		return p.cfg.replyErrorCtor(text), true, nil
	case tagInteger, tagBigNumber:
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		n, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil {
			err := p.poison(newProtocolErrorf("invalid integer %q", line))
			return Value{}, false, err
		}
		return Value{Type: TypeInteger, Int: n}, true, nil
	case tagDouble:
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		v, perr := parseDouble(line)
		if perr != nil {
			err := p.poison(newProtocolErrorf("invalid double %q", line))
			return Value{}, false, err
		}
		return Value{Type: TypeDouble, Float: v}, true, nil
	case tagBoolean:
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		// Permissive by design: only "t" is true, anything else (including a
		// malformed token) is false. Carried over from original_source rather
		// than hardened into a protocol error; see SPEC_FULL.md §9.
		return Value{Type: TypeBoolean, Bool: len(line) == 1 && line[0] == 't'}, true, nil
	case tagNull:
		if _, err := p.readLine(); err != nil {
			return Value{}, false, err
		}
		return Value{Type: TypeNull}, true, nil
	case tagBulkString:
		return p.advanceBulk(f, false)
	case tagVerbatimString:
		return p.advanceBulk(f, true)
	default: // tagArray, tagSet, tagMap, tagPush
		return p.advanceAggregate(f)
	}
}

// scalarFrameValue renders a completed scalar line as text or raw bytes per
// f's codec snapshot, poisoning the parser if decoding fails under Strict.
func (p *Parser) scalarFrameValue(t Type, raw []byte, f *frame) (Value, bool, error) {
	if f.codec == nil {
		return Value{Type: t, Bytes: raw}, true, nil
	}
	text, err := f.codec.decode(raw)
	if err != nil {
		perr := p.poison(err.Error())
		return Value{}, false, perr
	}
	return Value{Type: t, Text: text, Decoded: true}, true, nil
}

// advanceBulk handles both `$` (bulk string) and `=` (verbatim string): both
// are a decimal length line followed by exactly that many payload bytes and
// a trailing CRLF, verbatim additionally carrying a 3-byte format tag ahead
// of a `:` separator within the payload.
func (p *Parser) advanceBulk(f *frame, verbatim bool) (Value, bool, error) {
	if !f.hasLength {
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		n, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil || n < -1 {
			err := p.poison(newProtocolErrorf("invalid bulk length %q", line))
			return Value{}, false, err
		}
		if n == -1 {
			return Value{Type: TypeNull}, true, nil
		}
		f.length = int(n)
		f.hasLength = true
	}

	raw, err := p.readExact(f.length)
	if err != nil {
		return Value{}, false, err
	}

	if !verbatim {
		return p.scalarFrameValue(TypeBulkString, raw, f)
	}

	if len(raw) < 4 || raw[3] != ':' {
		perr := p.poison("malformed verbatim string: missing format prefix")
		return Value{}, false, perr
	}
	format := string(raw[:3])
	v, done, verr := p.scalarFrameValue(TypeVerbatimString, raw[4:], f)
	if verr != nil || !done {
		return v, done, verr
	}
	v.Format = format
	return v, true, nil
}

// advanceAggregate handles `*` (array), `~` (set), `%` (map) and `>` (push):
// a decimal count line, then that many (2x for map, key then value) child
// frames pushed one at a time so the driver loop parses them independently.
func (p *Parser) advanceAggregate(f *frame) (Value, bool, error) {
	t := aggregateType(f.tag)

	if !f.hasLength {
		line, err := p.readLine()
		if err != nil {
			return Value{}, false, err
		}
		n, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil || n < -1 {
			err := p.poison(newProtocolErrorf("invalid length %q", line))
			return Value{}, false, err
		}
		f.hasLength = true
		if n == -1 {
			return Value{Type: TypeNull}, true, nil
		}
		count := int(n)
		f.length = count
		if f.tag == tagMap {
			f.remaining = count * 2
		} else {
			f.remaining = count
		}
	}

	if f.remaining == 0 {
		return f.finish(t), true, nil
	}
	p.stack = append(p.stack, &frame{})
	return Value{}, false, nil
}

// lossyByte mirrors redis-py's `ctl.decode("utf8", "replace")` rendering of
// the single offending tag byte in a protocol error message.
func lossyByte(b byte) string {
	r, _ := utf8.DecodeRune([]byte{b})
	return string(r)
}

// parseDouble accepts the RESP3 double grammar, including the "inf"/"-inf"/
// "nan" spellings strconv.ParseFloat already understands natively.
func parseDouble(line []byte) (float64, error) {
	return strconv.ParseFloat(string(line), 64)
}
