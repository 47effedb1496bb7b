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
	"time"

	"github.com/pkg/errors"

	"github.com/packetd/respio/respmetrics"
)

// Parser incrementally decodes a stream of RESP2/RESP3 values. It performs no
// I/O of its own: bytes arrive via Feed and values come out of ParseOne. A
// single Parser is not safe for concurrent use; callers typically hold one
// per connection, the same way a net.Conn is owned by one goroutine.
//
// Once ParseOne returns a protocol error the Parser is poisoned: every
// subsequent call returns that same error without consuming any more bytes.
// There is no recovery path short of constructing a new Parser, matching
// redis-py's PythonParser, which never attempts wire resynchronization after
// a framing violation.
type Parser struct {
	buf   *buffer
	cfg   config
	codec *textCodec

	stickyErr error
	stack     []*frame
}

// NewParser builds a Parser. WithProtocolErrorCtor and WithReplyErrorCtor are
// required; NewParser panics without them, the same way logger.New panics on
// a bad log directory — a missing constructor is a wiring mistake caught at
// startup, never a runtime condition.
func NewParser(opts ...Option) *Parser {
	cfg := config{
		notEnoughData: Value{Type: TypeNotEnoughData},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.protocolErrorCtor == nil {
		panic("resp: WithProtocolErrorCtor is required")
	}
	if cfg.replyErrorCtor == nil {
		panic("resp: WithReplyErrorCtor is required")
	}

	codec, err := newTextCodec(cfg.encodingName, cfg.encodingErrors)
	if err != nil {
		panic(err)
	}

	return &Parser{
		buf:   newBuffer(),
		cfg:   cfg,
		codec: codec,
	}
}

// Feed appends newly received bytes to the internal buffer. It never blocks
// and never parses; call ParseOne to consume what it can.
func (p *Parser) Feed(b []byte) {
	p.buf.feed(b)
	respmetrics.BytesFed.Add(float64(len(b)))
}

// SetEncoding switches the text encoding applied to scalars decoded from this
// point forward (e.g. after a RESP3 HELLO negotiates a charset). Values
// already returned by ParseOne are unaffected; frames already in flight on
// the stack keep the codec snapshot captured when their tag was read.
func (p *Parser) SetEncoding(name string) error {
	codec, err := newTextCodec(name, p.cfg.encodingErrors)
	if err != nil {
		return err
	}
	p.cfg.encodingName = name
	p.codec = codec
	return nil
}

// Close releases the Parser's pooled buffer. The Parser must not be used
// afterward.
func (p *Parser) Close() {
	p.buf.release()
}

// ParseOne attempts to decode the next complete RESP value from whatever has
// been fed so far. It returns the configured not-enough-data sentinel (see
// WithNotEnoughData) — never an error — when the buffer holds a prefix of a
// value but not all of it; call Feed again and retry. It returns a non-nil
// error only once the wire has been found to violate RESP framing, and every
// call thereafter returns that same sticky error.
//
// Each call does at most O(bytes currently buffered) work: a value spanning
// many Feed calls is never re-scanned from its start, since the in-progress
// frame stack remembers exactly how far each nested frame had gotten.
func (p *Parser) ParseOne() (Value, error) {
	if p.stickyErr != nil {
		return Value{}, p.stickyErr
	}

	start := time.Now()
	for {
		if len(p.stack) == 0 {
			p.stack = append(p.stack, &frame{})
		}
		top := p.stack[len(p.stack)-1]

		v, done, err := p.advance(top)
		if err != nil {
			if errors.Is(err, errNeedMore) {
				respmetrics.Suspensions.Inc()
				return p.cfg.notEnoughData, nil
			}
			return Value{}, err
		}
		if !done {
			continue
		}

		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			respmetrics.ValuesDecoded.WithLabelValues(v.Type.String()).Inc()
			respmetrics.DecodeDuration.Observe(time.Since(start).Seconds())
			return v, nil
		}
		p.stack[len(p.stack)-1].attach(v)
	}
}
