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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProtocolErrorCtor(message string) error {
	return errors.New(message)
}

func testReplyErrorCtor(message string) Value {
	return Value{Type: TypeError, Text: message, Decoded: true}
}

func newTestParser(opts ...Option) *Parser {
	base := []Option{
		WithProtocolErrorCtor(testProtocolErrorCtor),
		WithReplyErrorCtor(testReplyErrorCtor),
	}
	return NewParser(append(base, opts...)...)
}

func decodeWhole(t *testing.T, input string, opts ...Option) (Value, error) {
	t.Helper()
	p := newTestParser(opts...)
	defer p.Close()
	p.Feed([]byte(input))
	return p.ParseOne()
}

func TestParseOneScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"simple string", "+OK\r\n", Value{Type: TypeSimpleString, Bytes: []byte("OK")}},
		{"negative integer", ":-42\r\n", Value{Type: TypeInteger, Int: -42}},
		{"bulk string", "$5\r\nhello\r\n", Value{Type: TypeBulkString, Bytes: []byte("hello")}},
		{
			"array of mixed scalars",
			"*3\r\n:1\r\n:2\r\n$3\r\nfoo\r\n",
			Value{Type: TypeArray, Items: []Value{
				{Type: TypeInteger, Int: 1},
				{Type: TypeInteger, Int: 2},
				{Type: TypeBulkString, Bytes: []byte("foo")},
			}},
		},
		{
			"verbatim string",
			"=15\r\ntxt:Some string\r\n",
			Value{Type: TypeVerbatimString, Bytes: []byte("Some string"), Format: "txt"},
		},
		{
			"map",
			"%2\r\n+a\r\n:1\r\n+b\r\n:2\r\n",
			Value{Type: TypeMap, Pairs: []Pair{
				{Key: Value{Type: TypeSimpleString, Bytes: []byte("a")}, Value: Value{Type: TypeInteger, Int: 1}},
				{Key: Value{Type: TypeSimpleString, Bytes: []byte("b")}, Value: Value{Type: TypeInteger, Int: 2}},
			}},
		},
		{"null bulk string", "$-1\r\n", Value{Type: TypeNull}},
		{"null array", "*-1\r\n", Value{Type: TypeNull}},
		{"boolean true", "#t\r\n", Value{Type: TypeBoolean, Bool: true}},
		{"boolean false", "#f\r\n", Value{Type: TypeBoolean, Bool: false}},
		{"double", ",3.14\r\n", Value{Type: TypeDouble, Float: 3.14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeWhole(t, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplyError(t *testing.T) {
	got, err := decodeWhole(t, "-ERR unknown command 'X'\r\n")
	require.NoError(t, err)
	assert.Equal(t, TypeError, got.Type)
	assert.Equal(t, "ERR unknown command 'X'", got.Text)
}

func TestBigNumberOverflow(t *testing.T) {
	_, err := decodeWhole(t, "(3492890328409238509324850943850943825024385\r\n")
	assert.Error(t, err)
}

func TestUnknownTagIsProtocolError(t *testing.T) {
	p := newTestParser()
	defer p.Close()
	p.Feed([]byte("!bad\r\n"))

	_, err := p.ParseOne()
	assert.Error(t, err)

	// Sticky: every subsequent call re-raises without consuming more bytes.
	again, err2 := p.ParseOne()
	assert.Error(t, err2)
	assert.Equal(t, Value{}, again)
	assert.Equal(t, err, err2)
}

func TestNotEnoughData(t *testing.T) {
	p := newTestParser()
	defer p.Close()
	p.Feed([]byte("$5\r\nhel"))

	v, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, TypeNotEnoughData, v.Type)

	p.Feed([]byte("lo\r\n"))
	v, err = p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, TypeBulkString, v.Type)
	assert.Equal(t, []byte("hello"), v.Bytes)
}

// TestChunkIndependence feeds the same input both whole and split across
// every possible single byte boundary, asserting ParseOne produces the same
// result either way.
func TestChunkIndependence(t *testing.T) {
	inputs := []string{
		"+OK\r\n",
		":-42\r\n",
		"$5\r\nhello\r\n",
		"*3\r\n:1\r\n:2\r\n$3\r\nfoo\r\n",
		"-ERR unknown command 'X'\r\n",
		"=15\r\ntxt:Some string\r\n",
		"%2\r\n+a\r\n:1\r\n+b\r\n:2\r\n",
		"*2\r\n*2\r\n:1\r\n:2\r\n*2\r\n:3\r\n:4\r\n",
	}

	for _, input := range inputs {
		whole, wholeErr := decodeWhole(t, input)

		for split := 1; split < len(input); split++ {
			p := newTestParser()
			p.Feed([]byte(input[:split]))
			v, err := p.ParseOne()
			if err == nil && v.Type == TypeNotEnoughData {
				p.Feed([]byte(input[split:]))
				v, err = p.ParseOne()
			}
			p.Close()

			require.Equal(t, wholeErr == nil, err == nil, "input=%q split=%d", input, split)
			if wholeErr == nil {
				assert.Equal(t, whole, v, "input=%q split=%d", input, split)
			}
		}
	}
}

func TestSetDedup(t *testing.T) {
	got, err := decodeWhole(t, "~3\r\n:1\r\n:1\r\n:2\r\n")
	require.NoError(t, err)
	assert.Equal(t, TypeSet, got.Type)
	assert.Equal(t, []Value{
		{Type: TypeInteger, Int: 1},
		{Type: TypeInteger, Int: 2},
	}, got.Items)
}

func TestMapLastWriteWins(t *testing.T) {
	got, err := decodeWhole(t, "%2\r\n+a\r\n:1\r\n+a\r\n:2\r\n")
	require.NoError(t, err)
	require.Len(t, got.Pairs, 1)
	assert.Equal(t, int64(2), got.Pairs[0].Value.Int)
}

func TestDeepNesting(t *testing.T) {
	const depth = 500
	var input string
	for i := 0; i < depth; i++ {
		input += "*1\r\n"
	}
	input += ":7\r\n"

	got, err := decodeWhole(t, input)
	require.NoError(t, err)

	v := got
	for i := 0; i < depth; i++ {
		require.Equal(t, TypeArray, v.Type)
		require.Len(t, v.Items, 1)
		v = v.Items[0]
	}
	assert.Equal(t, Value{Type: TypeInteger, Int: 7}, v)
}

func TestNotEnoughDataSentinelOverride(t *testing.T) {
	sentinel := Value{Type: TypeNotEnoughData, Text: "pending"}
	p := newTestParser(WithNotEnoughData(sentinel))
	defer p.Close()
	p.Feed([]byte("$5\r\nhel"))

	v, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, sentinel, v)
}

func TestPushAcceptedOnlyAsArray(t *testing.T) {
	got, err := decodeWhole(t, ">1\r\n+message\r\n")
	require.NoError(t, err)
	assert.Equal(t, TypeArray, got.Type)
}

func TestNewParserPanicsWithoutCtors(t *testing.T) {
	assert.Panics(t, func() {
		NewParser()
	})
	assert.Panics(t, func() {
		NewParser(WithProtocolErrorCtor(testProtocolErrorCtor))
	})
}
