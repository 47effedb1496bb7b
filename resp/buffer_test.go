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
)

func TestBufferFeedAndCompact(t *testing.T) {
	b := newBuffer()
	defer b.release()

	b.feed([]byte("hello world"))
	assert.Equal(t, []byte("hello world"), b.bytes())

	b.compact(6)
	assert.Equal(t, []byte("world"), b.bytes())

	b.feed([]byte("!"))
	assert.Equal(t, []byte("world!"), b.bytes())
}

func TestBufferAdvanceDoesNotCompact(t *testing.T) {
	b := newBuffer()
	defer b.release()

	b.feed([]byte("$5\r\nhello"))
	b.advance(1)
	assert.Equal(t, []byte("5\r\nhello"), b.bytes())
}
