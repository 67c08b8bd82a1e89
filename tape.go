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

// Package tapejson parses RFC 8259 JSON into a flat, 64-bit-entry tape
// supporting O(1) random access, with a lazy access layer that never
// materializes a full value tree.
package tapejson

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// JSONVALUEMASK isolates the 56-bit payload of a tape entry.
const JSONVALUEMASK = 0xffffffffffffff

// JSONTAGSHIFT is the bit offset of the 8-bit type tag within a tape entry.
const JSONTAGSHIFT = 56

// defaultMaxDepth is the default nesting limit (see ParserOption WithMaxDepth).
const defaultMaxDepth = 1000

// Tag indicates the data type of a tape entry.
type Tag uint8

// Tape entry tags. The byte values double as human-readable markers when
// dumping a tape.
const (
	TagString      = Tag('"')
	TagInteger     = Tag('l')
	TagFloat       = Tag('d')
	TagNull        = Tag('n')
	TagBoolTrue    = Tag('t')
	TagBoolFalse   = Tag('f')
	TagObjectStart = Tag('{')
	TagObjectEnd   = Tag('}')
	TagArrayStart  = Tag('[')
	TagArrayEnd    = Tag(']')
	TagRoot        = Tag('r')
	TagEnd         = Tag(0)
)

func (t Tag) String() string {
	if t == TagEnd {
		return "(end)"
	}
	return string([]byte{byte(t)})
}

// Type is a JSON value type, derived from a Tag.
type Type uint8

// Value types.
const (
	TypeNone Type = iota
	TypeNull
	TypeString
	TypeInt
	TypeFloat
	TypeBool
	TypeObject
	TypeArray
	TypeRoot
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "(no type)"
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeRoot:
		return "root"
	}
	return "(invalid)"
}

// tagToType converts a tag to its value type. Only basic values and the
// start tag of containers carry a meaningful type; everything else is
// TypeNone.
var tagToType = [256]Type{
	TagString:      TypeString,
	TagInteger:     TypeInt,
	TagFloat:       TypeFloat,
	TagNull:        TypeNull,
	TagBoolTrue:    TypeBool,
	TagBoolFalse:   TypeBool,
	TagObjectStart: TypeObject,
	TagArrayStart:  TypeArray,
	TagRoot:        TypeRoot,
}

// Type converts a tag to a type.
func (t Tag) Type() Type { return tagToType[t] }

// Document is the result of a successful parse: the immutable source
// buffer, the flat tape, and the string side buffer. All lazy views
// derived from a Document share its backing arrays; the Go garbage
// collector keeps them alive for as long as any view references them,
// which is the idiomatic-Go equivalent of the reference-counted tape
// handle described for the lazy view family.
type Document struct {
	// Source is the original immutable byte slice. Every string
	// reference without the escape flag borrows directly from it.
	Source []byte

	// Tape holds the flat sequence of type-tagged 64-bit entries.
	Tape []uint64

	// Strings is the side buffer of 9-byte string descriptors
	// (4-byte LE start, 4-byte LE length, 1-byte flags).
	Strings []byte
}

// Iter returns a root iterator over the document, positioned before its
// first (root) entry; call Advance to read it.
func (d *Document) Iter() Iter {
	return Iter{doc: *d}
}

// MarshalJSON re-serializes the whole document to compact JSON.
func (d *Document) MarshalJSON() ([]byte, error) {
	it := d.Iter()
	it.Advance()
	return it.MarshalJSONBuffer(nil)
}

// stringDescriptorSize is the byte width of one string side-buffer entry:
// 4 bytes start + 4 bytes length + 1 byte flags.
const stringDescriptorSize = 9

// escapeFlag is set in a string descriptor's flag byte when the referenced
// source range contains at least one backslash.
const escapeFlag = 1

// stringBytesAt resolves a string tape payload (an offset into Strings) to
// its bytes, unescaping on demand if the descriptor's escape flag is set.
func (d *Document) stringBytesAt(descOffset uint64) ([]byte, error) {
	if descOffset+stringDescriptorSize > uint64(len(d.Strings)) {
		return nil, fmt.Errorf("string descriptor offset (%d) outside valid area (%d)", descOffset, len(d.Strings))
	}
	desc := d.Strings[descOffset : descOffset+stringDescriptorSize]
	start := uint64(desc[0]) | uint64(desc[1])<<8 | uint64(desc[2])<<16 | uint64(desc[3])<<24
	length := uint64(desc[4]) | uint64(desc[5])<<8 | uint64(desc[6])<<16 | uint64(desc[7])<<24
	flags := desc[8]
	if start+length > uint64(len(d.Source)) {
		return nil, fmt.Errorf("string source range [%d:%d] outside valid area (%d)", start, start+length, len(d.Source))
	}
	raw := d.Source[start : start+length]
	if flags&escapeFlag == 0 {
		return raw, nil
	}
	return unescapeString(raw)
}

// appendStringDescriptor appends a 9-byte descriptor to the Strings side
// buffer and returns its offset, for use by the tape builder.
func (d *Document) appendStringDescriptor(start, length uint32, escaped bool) uint64 {
	offset := uint64(len(d.Strings))
	var flags byte
	if escaped {
		flags = escapeFlag
	}
	d.Strings = append(d.Strings,
		byte(start), byte(start>>8), byte(start>>16), byte(start>>24),
		byte(length), byte(length>>8), byte(length>>16), byte(length>>24),
		flags,
	)
	return offset
}

// writeTag appends a tagged entry with no secondary payload word.
func writeTag(tape []uint64, val uint64, tag Tag) []uint64 {
	return append(tape, val|(uint64(tag)<<JSONTAGSHIFT))
}

// writeTagWord appends a tagged entry followed by a raw 64-bit payload
// word (used for int64 and float64 values).
func writeTagWord(tape []uint64, tag Tag, word uint64) []uint64 {
	return append(tape, uint64(tag)<<JSONTAGSHIFT, word)
}

func writeInt64(tape []uint64, v int64) []uint64 {
	return writeTagWord(tape, TagInteger, uint64(v))
}

func writeFloat64(tape []uint64, v float64) []uint64 {
	return writeTagWord(tape, TagFloat, math.Float64bits(v))
}

// patchPayload overwrites the low 56 bits of the entry at idx, preserving
// its tag. Used to back-patch start_container -> end_container offsets.
func patchPayload(tape []uint64, idx int, payload uint64) {
	tape[idx] = (tape[idx] &^ JSONVALUEMASK) | (payload & JSONVALUEMASK)
}

// escapeBytes appends src to dst with JSON string escaping applied.
func escapeBytes(dst, src []byte) []byte {
	for _, s := range src {
		switch s {
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '"':
			dst = append(dst, '\\', '"')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\\':
			dst = append(dst, '\\', '\\')
		default:
			if s <= 0x1f {
				dst = append(dst, '\\', 'u', '0', '0', valToHex[s>>4], valToHex[s&0xf])
			} else {
				dst = append(dst, s)
			}
		}
	}
	return dst
}

var valToHex = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

// floatToString converts a float to a string the same way the compact
// serializer does, used by Iter.StringCvt.
func floatToString(f float64) (string, error) {
	var tmp [32]byte
	v, err := appendFloat(tmp[:0], f)
	return string(v), err
}

// appendFloat converts a float to string similar to the Go standard
// library and appends it to dst.
func appendFloat(dst []byte, f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, errors.New("INF or NaN number found")
	}
	abs := math.Abs(f)
	fmtByte := byte('f')
	if abs != 0 {
		if abs < 1e-6 || abs >= 1e21 {
			fmtByte = 'e'
		}
	}
	dst = strconv.AppendFloat(dst, f, fmtByte, -1, 64)
	if fmtByte == 'e' {
		// Clean up e-09 to e-9, matching ES6 number-to-string conversion.
		n := len(dst)
		if n >= 4 && dst[n-4] == 'e' && dst[n-3] == '-' && dst[n-2] == '0' {
			dst[n-2] = dst[n-1]
			dst = dst[:n-1]
		}
	}
	return dst, nil
}
