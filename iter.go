// Copyright 2024 The tapejson Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tapejson

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Iter is a lazy view: a (tape, index) pair that answers type and access
// queries without ever materializing a value tree. Copying an Iter is
// independent of the original; sub-views returned from navigation share
// the same backing arrays (see Document).
//
// To start iterating, call Advance (or AdvanceInto for manual descent into
// containers); the first value becomes current.
type Iter struct {
	// doc is the tape this iterator walks. Its Tape slice may be
	// restricted to bound a sub-scope (see Object/Array).
	doc Document

	// off is the offset of the next entry to decode.
	off int

	// addNext is how many tape slots to skip to reach the entry after
	// the current one (1 for scalars, the container length for
	// start_object/start_array/root when not descending into them).
	addNext int

	// cur is the current entry's payload, tag bits excluded.
	cur uint64

	// t is the current entry's tag.
	t Tag
}

// scalarSpan gives the fixed number of tape slots occupied by a scalar
// entry's trailing payload word (0 for entries with no payload word, or
// whose span depends on container content and is computed separately in
// calcNext). Indexed by Tag, which fits a byte.
var scalarSpan = func() [256]int8 {
	var t [256]int8
	t[TagInteger] = 1
	t[TagFloat] = 1
	return t
}()

// readTapeEntry splits the 64-bit word at tape[idx] into its payload and
// tag halves. The caller must have already checked idx is in range.
func readTapeEntry(tape []uint64, idx int) (uint64, Tag) {
	v := tape[idx]
	return v & JSONVALUEMASK, Tag(v >> JSONTAGSHIFT)
}

// step decodes the entry at i.off (which must be in range), advances
// i.off past it, and recomputes addNext for the decoded entry. Shared by
// Advance, AdvanceInto, and AdvanceIter, which differ only in whether
// containers are entered (into) and in what they do with the result.
func (i *Iter) step(into bool) {
	i.cur, i.t = readTapeEntry(i.doc.Tape, i.off)
	i.off++
	i.calcNext(into)
}

// Advance reads the type of the next element and queues the value at the
// same nesting level (skipping over containers rather than descending).
func (i *Iter) Advance() Type {
	i.off += i.addNext
	if i.off >= len(i.doc.Tape) {
		i.moveToEnd()
		return TypeNone
	}
	i.step(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone
	}
	return tagToType[i.t]
}

// AdvanceInto reads the tag of the next element and, for containers and
// root, moves into it rather than skipping past it. Intended for manual
// tree descent.
func (i *Iter) AdvanceInto() Tag {
	i.off += i.addNext
	if i.off >= len(i.doc.Tape) {
		i.moveToEnd()
		return TagEnd
	}
	i.step(true)
	if i.addNext < 0 {
		i.moveToEnd()
		return TagEnd
	}
	return i.t
}

func (i *Iter) moveToEnd() {
	i.off = len(i.doc.Tape)
	i.addNext = 0
	i.t = TagEnd
}

// calcNext populates addNext with the number of tape slots to the next
// sibling entry. When into is true, containers are entered instead of
// skipped.
func (i *Iter) calcNext(into bool) {
	if span := scalarSpan[i.t]; span != 0 {
		i.addNext = int(span)
		return
	}
	i.addNext = 0
	if into {
		return
	}
	if i.t == TagRoot || i.t == TagObjectStart || i.t == TagArrayStart {
		i.addNext = int(i.cur) - i.off
	}
}

// Type returns the type of the value queued by the previous Advance.
func (i *Iter) Type() Type {
	if i.off+i.addNext > len(i.doc.Tape) {
		return TypeNone
	}
	return tagToType[i.t]
}

// peekTag returns the tag of the entry a following Advance would read,
// without consuming it, or TagEnd if none remains.
func (i *Iter) peekTag() Tag {
	if i.off+i.addNext >= len(i.doc.Tape) {
		return TagEnd
	}
	_, t := readTapeEntry(i.doc.Tape, i.off+i.addNext)
	return t
}

// PeekNext returns the type of the value that a following Advance would
// read, without consuming it.
func (i *Iter) PeekNext() Type { return tagToType[i.peekTag()] }

// PeekNextTag is like PeekNext but returns the raw tag, including TagEnd
// at the end of the tape.
func (i *Iter) PeekNextTag() Tag { return i.peekTag() }

// AdvanceIter reads the next element and returns an iterator restricted to
// just that element's scope (useful for handing a sub-value to another
// consumer without letting it wander past its bounds).
func (i *Iter) AdvanceIter(dst *Iter) (Type, error) {
	i.off += i.addNext
	switch {
	case i.off == len(i.doc.Tape):
		i.moveToEnd()
		return TypeNone, nil
	case i.off > len(i.doc.Tape):
		return TypeNone, errors.New("offset bigger than tape")
	}
	i.step(false)
	if i.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}
	end := i.off + i.addNext
	typ := tagToType[i.t]
	if i != dst {
		*dst = *i
	}
	dst.calcNext(true)
	if dst.addNext < 0 {
		i.moveToEnd()
		return TypeNone, errors.New("element has negative offset")
	}
	if end > len(dst.doc.Tape) {
		return TypeNone, errors.New("element extends beyond tape")
	}
	dst.doc.Tape = dst.doc.Tape[:end]
	return typ, nil
}

// Is* predicates answer the current value's type without ever failing;
// exactly one of them (or none, for root/end) is true for any value.
func (i *Iter) IsNull() bool   { return i.t == TagNull }
func (i *Iter) IsBool() bool   { return i.t == TagBoolTrue || i.t == TagBoolFalse }
func (i *Iter) IsInt() bool    { return i.t == TagInteger }
func (i *Iter) IsFloat() bool  { return i.t == TagFloat }
func (i *Iter) IsString() bool { return i.t == TagString }
func (i *Iter) IsArray() bool  { return i.t == TagArrayStart }
func (i *Iter) IsObject() bool { return i.t == TagObjectStart }

// Bool returns the bool value of the current element.
func (i *Iter) Bool() (bool, error) {
	switch i.t {
	case TagBoolTrue:
		return true, nil
	case TagBoolFalse:
		return false, nil
	default:
		return false, fmt.Errorf("value is not bool, but %v", i.t)
	}
}

// AsBool returns the bool value, or false as the infallible-lazy-access
// sentinel when the current value is not a bool.
func (i *Iter) AsBool() bool {
	v, _ := i.Bool()
	return v
}

// Int returns the integer value of the current element. A float is
// truncated toward zero.
func (i *Iter) Int() (int64, error) {
	switch i.t {
	case TagInteger:
		if i.off >= len(i.doc.Tape) {
			return 0, errors.New("corrupt tape: expected integer payload word")
		}
		return int64(i.doc.Tape[i.off]), nil
	case TagFloat:
		if i.off >= len(i.doc.Tape) {
			return 0, errors.New("corrupt tape: expected float payload word")
		}
		v := math.Float64frombits(i.doc.Tape[i.off])
		if v > math.MaxInt64 || v < math.MinInt64 {
			return 0, errors.New("float value overflows int64")
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unable to convert type %v to int", i.t)
	}
}

// AsInt returns the integer value, or 0 as the infallible-lazy-access
// sentinel when the current value is not numeric.
func (i *Iter) AsInt() int64 {
	v, _ := i.Int()
	return v
}

// Float returns the float value of the current element. An integer is
// promoted.
func (i *Iter) Float() (float64, error) {
	switch i.t {
	case TagFloat:
		if i.off >= len(i.doc.Tape) {
			return 0, errors.New("corrupt tape: expected float payload word")
		}
		return math.Float64frombits(i.doc.Tape[i.off]), nil
	case TagInteger:
		if i.off >= len(i.doc.Tape) {
			return 0, errors.New("corrupt tape: expected integer payload word")
		}
		return float64(int64(i.doc.Tape[i.off])), nil
	default:
		return 0, fmt.Errorf("unable to convert type %v to float", i.t)
	}
}

// AsFloat returns the float value, or 0 as the infallible-lazy-access
// sentinel when the current value is not numeric.
func (i *Iter) AsFloat() float64 {
	v, _ := i.Float()
	return v
}

// String returns the string value of the current element, unescaping on
// demand if needed.
func (i *Iter) String() (string, error) {
	b, err := i.StringBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AsString returns the string value, or "" as the infallible-lazy-access
// sentinel when the current value is not a string.
func (i *Iter) AsString() string {
	v, _ := i.String()
	return v
}

// StringBytes returns the string value of the current element as bytes,
// avoiding an allocation when no escape processing is needed.
func (i *Iter) StringBytes() ([]byte, error) {
	if i.t != TagString {
		return nil, errors.New("value is not string")
	}
	return i.doc.stringBytesAt(i.cur)
}

// StringCvt returns a string representation of any scalar value (not
// objects, arrays, or root).
func (i *Iter) StringCvt() (string, error) {
	switch i.t {
	case TagString:
		return i.String()
	case TagInteger:
		v, err := i.Int()
		return strconv.FormatInt(v, 10), err
	case TagFloat:
		v, err := i.Float()
		if err != nil {
			return "", err
		}
		return floatToString(v)
	case TagBoolFalse:
		return "false", nil
	case TagBoolTrue:
		return "true", nil
	case TagNull:
		return "null", nil
	}
	return "", fmt.Errorf("cannot convert type %s to string", tagToType[i.t])
}

// Len returns the number of direct children of the current array or
// object (key+value pairs count once for objects), or 0 for anything
// else, per the infallible lazy-access contract.
func (i *Iter) Len() int {
	switch i.t {
	case TagArrayStart:
		a, err := i.Array(nil)
		if err != nil {
			return 0
		}
		return a.Len()
	case TagObjectStart:
		o, err := i.Object(nil)
		if err != nil {
			return 0
		}
		return o.Len()
	}
	return 0
}

// Root returns the value embedded in a root entry as an iterator, along
// with the type of the first element. An optional destination avoids an
// allocation.
func (i *Iter) Root(dst *Iter) (Type, *Iter, error) {
	if i.t != TagRoot {
		return TypeNone, dst, errors.New("value is not root")
	}
	if i.cur > uint64(len(i.doc.Tape)) {
		return TypeNone, dst, errors.New("root element extends beyond tape")
	}
	if dst == nil {
		dst = &Iter{}
	}
	*dst = Iter{
		doc: Document{
			Tape:    i.doc.Tape[:i.cur-1],
			Strings: i.doc.Strings,
			Source:  i.doc.Source,
		},
		off: i.off,
		cur: i.cur,
		t:   i.t,
	}
	return dst.AdvanceInto().Type(), dst, nil
}

// scope is the tape view shared by Object and Array: the tape sliced to
// just past the container's matching end entry, plus the offset of its
// first child.
type scope struct {
	doc Document
	off int
}

// enterScope validates that end is a sane container-end payload for the
// current tape and builds the restricted view both Object and Array
// hand back to their caller.
func (i *Iter) enterScope(end uint64) (scope, error) {
	if end < uint64(i.off) || uint64(len(i.doc.Tape)) < end {
		return scope{}, errors.New("corrupt tape: container scope out of range")
	}
	return scope{
		doc: Document{
			Tape:    i.doc.Tape[:end],
			Strings: i.doc.Strings,
			Source:  i.doc.Source,
		},
		off: i.off,
	}, nil
}

// Object returns the current element as an Object view. An optional
// destination avoids an allocation.
func (i *Iter) Object(dst *Object) (*Object, error) {
	if i.t != TagObjectStart {
		return nil, errors.New("next item is not object")
	}
	s, err := i.enterScope(i.cur)
	if err != nil {
		return nil, err
	}
	if dst == nil {
		dst = &Object{}
	}
	dst.scope = s
	return dst, nil
}

// Array returns the current element as an Array view. An optional
// destination avoids an allocation.
func (i *Iter) Array(dst *Array) (*Array, error) {
	if i.t != TagArrayStart {
		return nil, errors.New("next item is not array")
	}
	s, err := i.enterScope(i.cur)
	if err != nil {
		return nil, err
	}
	if dst == nil {
		dst = &Array{}
	}
	dst.scope = s
	return dst, nil
}

// Interface materializes the current value (and everything below it)
// into plain Go values: map[string]interface{}, []interface{}, string,
// int64, float64, bool, or nil. This is the bridge used by the
// ValueTree compatibility API.
func (i *Iter) Interface() (interface{}, error) {
	switch i.t.Type() {
	case TypeInt:
		return i.Int()
	case TypeFloat:
		return i.Float()
	case TypeNull:
		return nil, nil
	case TypeArray:
		arr, err := i.Array(nil)
		if err != nil {
			return nil, err
		}
		return arr.Interface()
	case TypeString:
		return i.String()
	case TypeObject:
		obj, err := i.Object(nil)
		if err != nil {
			return nil, err
		}
		return obj.Map(nil)
	case TypeBool:
		return i.t == TagBoolTrue, nil
	case TypeRoot:
		var tmp Iter
		typ, obj, err := i.Root(&tmp)
		if err != nil {
			return nil, err
		}
		if typ == TypeNone {
			return nil, nil
		}
		return obj.Interface()
	case TypeNone:
		if i.PeekNextTag() == TagEnd {
			return nil, errors.New("no content in iterator")
		}
		i.Advance()
		return i.Interface()
	}
	return nil, fmt.Errorf("unknown tag type: %v", i.t)
}

// MarshalJSON marshals the current value (and everything below it) to
// compact JSON; siblings are not included.
func (i *Iter) MarshalJSON() ([]byte, error) {
	return i.MarshalJSONBuffer(nil)
}

// MarshalJSONBuffer is like MarshalJSON but appends to dst, for fewer
// allocations when re-serializing many values. It serializes exactly the
// value currently queued (the one a prior Advance/AdvanceInto read),
// recursing into containers; it does not touch siblings, so callers
// walking an Array or Object can call it once per element.
func (i *Iter) MarshalJSONBuffer(dst []byte) ([]byte, error) {
	switch i.t {
	case TagRoot:
		// An Advance left addNext pointing past the whole container;
		// descend into it instead.
		i.addNext = 0
		i.AdvanceInto()
		return i.MarshalJSONBuffer(dst)
	case TagString:
		sb, err := i.StringBytes()
		if err != nil {
			return nil, err
		}
		dst = append(dst, '"')
		dst = escapeBytes(dst, sb)
		return append(dst, '"'), nil
	case TagInteger:
		v, err := i.Int()
		if err != nil {
			return nil, err
		}
		return strconv.AppendInt(dst, v, 10), nil
	case TagFloat:
		v, err := i.Float()
		if err != nil {
			return nil, err
		}
		return appendFloat(dst, v)
	case TagNull:
		return append(dst, "null"...), nil
	case TagBoolTrue:
		return append(dst, "true"...), nil
	case TagBoolFalse:
		return append(dst, "false"...), nil
	case TagObjectStart:
		i.addNext = 0
		dst = append(dst, '{')
		first := true
		for {
			tag := i.AdvanceInto()
			if tag == TagObjectEnd {
				break
			}
			if tag != TagString {
				return nil, fmt.Errorf("expected string key within object, got %v", tag)
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			sb, err := i.StringBytes()
			if err != nil {
				return nil, err
			}
			dst = append(dst, '"')
			dst = escapeBytes(dst, sb)
			dst = append(dst, '"', ':')
			i.AdvanceInto()
			dst, err = i.MarshalJSONBuffer(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	case TagArrayStart:
		i.addNext = 0
		dst = append(dst, '[')
		first := true
		for {
			tag := i.AdvanceInto()
			if tag == TagArrayEnd {
				break
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			var err error
			dst, err = i.MarshalJSONBuffer(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	}
	return nil, fmt.Errorf("cannot marshal tag %v", i.t)
}
