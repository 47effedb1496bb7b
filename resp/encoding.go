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
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingErrorPolicy controls what happens when a string-bearing scalar's
// bytes cannot be decoded under the configured encoding.
type EncodingErrorPolicy int

const (
	// Strict fails the decode (a protocol error, since the bytes genuinely
	// cannot be rendered as text under the requested encoding).
	Strict EncodingErrorPolicy = iota
	// Replace substitutes the Unicode replacement character for each
	// offending byte and continues.
	Replace
	// Ignore drops each offending byte and continues.
	Ignore
)

// textCodec resolves a wire encoding name (e.g. "utf-8", "iso-8859-1") to an
// x/text Encoding via the IANA charset registry, the same registry browsers
// and mail clients use to resolve a Content-Type charset parameter. A nil
// *textCodec means "no encoding configured": scalars are delivered as raw
// bytes, matching §3's "encoding absent" case.
type textCodec struct {
	name   string
	enc    encoding.Encoding
	policy EncodingErrorPolicy
}

func newTextCodec(name string, policy EncodingErrorPolicy) (*textCodec, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, errors.Wrapf(err, "resp: unknown text encoding %q", name)
	}
	if enc == nil {
		return nil, errors.Errorf("resp: unsupported text encoding %q", name)
	}
	return &textCodec{name: name, enc: enc, policy: policy}, nil
}

// decode transforms raw wire bytes to text under c's policy. It follows the
// textbook transform.Transformer drive loop (grow dst on ErrShortDst, consume
// the destination the decoder was able to produce, and special-case the
// first undecodable byte per policy) since x/text's UTF8 decoder has no
// built-in strict mode of its own.
func (c *textCodec) decode(b []byte) (string, error) {
	// x/text's UTF-8 decoder substitutes U+FFFD for invalid bytes instead of
	// reporting them, so Strict and Ignore are applied here before it runs.
	if c.enc == unicode.UTF8 && c.policy != Replace && !utf8.Valid(b) {
		if c.policy == Ignore {
			return strings.ToValidUTF8(string(b), ""), nil
		}
		return "", errors.Errorf("resp: invalid byte sequence for encoding %q", c.name)
	}

	dec := c.enc.NewDecoder()
	dst := make([]byte, 0, len(b))
	src := b
	scratch := make([]byte, 4096)

	for len(src) > 0 {
		nDst, nSrc, err := dec.Transform(scratch, src, true)
		dst = append(dst, scratch[:nDst]...)
		src = src[nSrc:]

		switch err {
		case nil:
			return string(dst), nil
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			// atEOF was true, so the remaining bytes are a genuinely
			// truncated sequence, not a resumable split; treat as one bad byte.
			fallthrough
		default:
			if len(src) == 0 {
				return string(dst), nil
			}
			switch c.policy {
			case Ignore:
				src = src[1:]
			case Replace:
				dst = append(dst, "�"...)
				src = src[1:]
			default:
				return "", errors.Errorf("resp: invalid byte sequence for encoding %q", c.name)
			}
			dec.Reset()
		}
	}
	return string(dst), nil
}

// defaultErrorCodec backs reply-error text when no encoding was configured.
var defaultErrorCodec = &textCodec{name: "utf-8", enc: unicode.UTF8, policy: Replace}

// errorCodec returns a codec for decoding `-` reply text. redis-py's
// _parse_error always decodes with errors="replace" regardless of the
// parser's configured error policy, on the theory that a malformed error
// message should never itself become unparseable; this mirrors that rule.
func errorCodec(base *textCodec) *textCodec {
	if base == nil {
		return defaultErrorCodec
	}
	return &textCodec{name: base.name, enc: base.enc, policy: Replace}
}
