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

// ProtocolErrorCtor builds the error value returned (and latched) when the
// wire violates RESP framing.
type ProtocolErrorCtor func(message string) error

// ReplyErrorCtor builds the value returned for a `-` reply frame. Unlike a
// protocol error this is an ordinary, non-poisoning Value.
type ReplyErrorCtor func(message string) Value

// Option configures a Parser at construction time.
type Option func(*config)

type config struct {
	protocolErrorCtor ProtocolErrorCtor
	replyErrorCtor    ReplyErrorCtor
	notEnoughData     Value
	encodingName      string
	encodingErrors    EncodingErrorPolicy
}

// WithProtocolErrorCtor is required: NewParser panics without it, the same
// way logger.New panics on an unwritable log directory — a missing
// constructor callback is a programmer mistake caught at startup, not a
// runtime condition that flows through ParseOne's value-carrying paths.
func WithProtocolErrorCtor(ctor ProtocolErrorCtor) Option {
	return func(c *config) { c.protocolErrorCtor = ctor }
}

// WithReplyErrorCtor is required; see WithProtocolErrorCtor.
func WithReplyErrorCtor(ctor ReplyErrorCtor) Option {
	return func(c *config) { c.replyErrorCtor = ctor }
}

// WithNotEnoughData overrides the sentinel ParseOne returns when the current
// buffer holds no complete frame. The default is a dedicated
// TypeNotEnoughData Value rather than a bare false/nil, since false is itself
// a legitimate decoded RESP boolean.
func WithNotEnoughData(v Value) Option {
	return func(c *config) { c.notEnoughData = v }
}

// WithEncoding decodes string-bearing scalars (simple string, bulk string,
// verbatim string) to text using the named IANA charset. Absent, scalars are
// delivered as raw bytes.
func WithEncoding(name string) Option {
	return func(c *config) { c.encodingName = name }
}

// WithEncodingErrors selects the policy applied when a scalar's bytes cannot
// be decoded under the configured encoding. Default is Strict.
func WithEncodingErrors(policy EncodingErrorPolicy) Option {
	return func(c *config) { c.encodingErrors = policy }
}
