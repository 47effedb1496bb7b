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

import "strconv"

// frame is one in-flight attempt to parse a single RESP value: either a
// top-level value or one element of an aggregate. It replaces the stack
// frame a generator-based parser would keep on the goroutine/coroutine call
// stack; see protocol/predis/decoder.go's stack/register pair, generalized
// here from "array of bulk strings" to the full RESP2/RESP3 grammar.
//
// The state that must survive a suspend-and-resume across ParseOne calls is
// the tag (once read), for length-prefixed frames the decoded length, and
// for aggregates the remaining child count and the children collected so
// far — all recorded here rather than held in a local variable, since a
// local variable does not survive returning to the caller. Every low-level
// reader is all-or-nothing (reader.go), so no reader progress is remembered:
// a suspended read is simply retried from scratch.
type frame struct {
	tag       byte // 0 until the tag byte has been read
	hasLength bool
	length    int // bulk/verbatim payload length, or element count for aggregates
	remaining int // aggregate: dispatches still needed (map counts 2 per entry)

	items []Value
	pairs []Pair

	pendingKey *Value // map: key awaiting its value

	setIndex  map[string]int // set: canonicalKey -> index in items, for dedup
	pairIndex map[string]int // map: canonicalKey -> index in pairs, for dedup

	codec *textCodec // snapshot of the parser's codec when tag became known
}

// attach folds a completed child value into an in-progress aggregate frame.
func (f *frame) attach(child Value) {
	switch f.tag {
	case tagSet:
		f.addSetItem(child)
	case tagMap:
		if f.pendingKey == nil {
			k := child
			f.pendingKey = &k
		} else {
			f.upsertPair(*f.pendingKey, child)
			f.pendingKey = nil
		}
	default: // array, push
		if f.items == nil {
			f.items = make([]Value, 0, f.length)
		}
		f.items = append(f.items, child)
	}
	f.remaining--
}

// addSetItem appends child to the set, replacing any earlier element with
// the same canonical key (last-write-wins, per SPEC_FULL.md §4.4). Elements
// that cannot be canonicalized (nested aggregates) are never deduplicated
// against — unlike redis-py's PythonParser, whose _parse_set silently never
// recurses into its elements at all (a bug this decoder does not reproduce;
// see SPEC_FULL.md §9).
func (f *frame) addSetItem(v Value) {
	key, ok := canonicalKey(v)
	if !ok {
		f.items = append(f.items, v)
		return
	}
	if f.setIndex == nil {
		f.setIndex = make(map[string]int, f.length)
	}
	if idx, dup := f.setIndex[key]; dup {
		f.items[idx] = v
		return
	}
	f.setIndex[key] = len(f.items)
	f.items = append(f.items, v)
}

// upsertPair inserts or overwrites a map entry by canonical key, last write
// winning. Keys that cannot be canonicalized are always appended as new
// entries: RESP permits aggregate map keys, however impractical that is.
func (f *frame) upsertPair(k, v Value) {
	key, ok := canonicalKey(k)
	if ok {
		if f.pairIndex == nil {
			f.pairIndex = make(map[string]int, f.length)
		}
		if idx, dup := f.pairIndex[key]; dup {
			f.pairs[idx].Value = v
			return
		}
		f.pairIndex[key] = len(f.pairs)
	}
	f.pairs = append(f.pairs, Pair{Key: k, Value: v})
}

// finish builds the Value for a completed aggregate frame.
func (f *frame) finish(t Type) Value {
	if t == TypeMap {
		pairs := f.pairs
		if pairs == nil {
			pairs = []Pair{}
		}
		return Value{Type: TypeMap, Pairs: pairs}
	}
	items := f.items
	if items == nil {
		items = []Value{}
	}
	return Value{Type: t, Items: items}
}

// canonicalKey renders a scalar Value as a comparable string for set/map
// dedup. Aggregates return ok=false: they are never hashable here.
func canonicalKey(v Value) (string, bool) {
	switch v.Type {
	case TypeSimpleString, TypeBulkString, TypeVerbatimString, TypeError:
		if v.Decoded {
			return "s:" + v.Text, true
		}
		return "b:" + string(v.Bytes), true
	case TypeInteger:
		return "i:" + strconv.FormatInt(v.Int, 10), true
	case TypeDouble:
		return "f:" + strconv.FormatFloat(v.Float, 'g', -1, 64), true
	case TypeBoolean:
		if v.Bool {
			return "t", true
		}
		return "f", true
	case TypeNull:
		return "n", true
	default:
		return "", false
	}
}
