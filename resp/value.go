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

// Package resp implements an incremental, sans-I/O decoder for the RESP2 and
// RESP3 wire protocols used by Redis-compatible servers.
//
// A Parser never reads or writes a transport itself: bytes are handed to it
// with Feed, and ParseOne is called until it stops returning the configured
// not-enough-data sentinel. This mirrors hiredis/redis-py's PythonParser,
// adapted from generator-based suspension (which Go lacks) to an explicit
// resumable frame stack; see stack.go.
package resp

import "strconv"

// Type identifies the RESP value variant carried by a Value.
type Type int

const (
	// TypeNotEnoughData is never a real decoded value; it is the zero Value's
	// type and is also what the default not-enough-data sentinel carries.
	TypeNotEnoughData Type = iota
	TypeSimpleString
	TypeBulkString
	TypeVerbatimString
	TypeError
	TypeInteger
	TypeDouble
	TypeBoolean
	TypeNull
	TypeArray
	TypeSet
	TypeMap
)

func (t Type) String() string {
	switch t {
	case TypeSimpleString:
		return "SimpleString"
	case TypeBulkString:
		return "BulkString"
	case TypeVerbatimString:
		return "VerbatimString"
	case TypeError:
		return "Error"
	case TypeInteger:
		return "Integer"
	case TypeDouble:
		return "Double"
	case TypeBoolean:
		return "Boolean"
	case TypeNull:
		return "Null"
	case TypeArray:
		return "Array"
	case TypeSet:
		return "Set"
	case TypeMap:
		return "Map"
	default:
		return "NotEnoughData"
	}
}

// Pair is one key/value entry of a decoded Map. Pairs preserve first-insertion
// order for keys that are never overwritten, but callers must not treat that
// order as meaningful: RESP map key order carries no protocol semantics.
type Pair struct {
	Key   Value
	Value Value
}

// Value is a decoded RESP reply. Exactly one group of fields is meaningful,
// selected by Type:
//
//   - TypeSimpleString, TypeBulkString, TypeVerbatimString, TypeError: Bytes
//     (raw) or Text (when the Parser was configured with an encoding; Decoded
//     is true in that case).
//   - TypeInteger: Int
//   - TypeDouble: Float
//   - TypeBoolean: Bool
//   - TypeNull, TypeNotEnoughData: no payload fields are meaningful.
//   - TypeArray, TypeSet: Items
//   - TypeMap: Pairs
//
// Format, for TypeVerbatimString, carries the 3-byte format tag (e.g. "txt",
// "mkd") that prefixed the wire payload; it is not part of Bytes/Text.
type Value struct {
	Type Type

	Bytes   []byte
	Text    string
	Decoded bool

	Int   int64
	Float float64
	Bool  bool

	Format string

	Items []Value
	Pairs []Pair
}

// IsNull reports whether v is a RESP null (either the dedicated null type or
// a null bulk string / null array, both of which decode to this same shape).
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// String renders v for logging and the respctl text output mode. It is not a
// RESP encoder: round-tripping back to the wire is not a goal of this type.
func (v Value) String() string {
	switch v.Type {
	case TypeSimpleString, TypeBulkString, TypeVerbatimString, TypeError:
		if v.Decoded {
			return v.Text
		}
		return string(v.Bytes)
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeNull:
		return "<nil>"
	default:
		return v.Type.String()
	}
}
