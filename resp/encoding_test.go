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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingStrictRejectsInvalidUTF8(t *testing.T) {
	input := "$3\r\nhe\xff\r\n"
	_, err := decodeWhole(t, input, WithEncoding("utf-8"), WithEncodingErrors(Strict))
	assert.Error(t, err)
}

func TestEncodingReplacePolicy(t *testing.T) {
	input := "$3\r\nhe\xff\r\n"
	got, err := decodeWhole(t, input, WithEncoding("utf-8"), WithEncodingErrors(Replace))
	require.NoError(t, err)
	assert.Equal(t, TypeBulkString, got.Type)
	assert.True(t, got.Decoded)
	assert.Equal(t, "he�", got.Text)
}

func TestEncodingIgnorePolicy(t *testing.T) {
	input := "$3\r\nhe\xff\r\n"
	got, err := decodeWhole(t, input, WithEncoding("utf-8"), WithEncodingErrors(Ignore))
	require.NoError(t, err)
	assert.Equal(t, "he", got.Text)
}

func TestNoEncodingConfiguredYieldsRawBytes(t *testing.T) {
	got, err := decodeWhole(t, "$3\r\nhe\xff\r\n")
	require.NoError(t, err)
	assert.False(t, got.Decoded)
	assert.Equal(t, []byte("he\xff"), got.Bytes)
}

func TestReplyErrorAlwaysDecodedEvenUnderStrict(t *testing.T) {
	// The "-" frame forces a Replace policy internally regardless of the
	// parser's configured encoding errors, so a malformed error message never
	// itself becomes a protocol error.
	input := "-bad \xff reply\r\n"
	got, err := decodeWhole(t, input, WithEncoding("utf-8"), WithEncodingErrors(Strict))
	require.NoError(t, err)
	assert.Equal(t, TypeError, got.Type)
	assert.Contains(t, got.Text, "�")
}

func TestUnknownEncodingNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		newTestParser(WithEncoding("not-a-real-charset"))
	})
}
