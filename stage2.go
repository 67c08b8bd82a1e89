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

import "fmt"

// scopeKind records whether a still-open container on the tape builder's
// explicit stack is an object or an array, so object_continue/
// array_continue can be told apart without a second goto-label space
// the way stage2_build_tape_amd64.go's RET_ADDRESS_* packing does.
type scopeKind uint8

const (
	scopeObject scopeKind = iota
	scopeArray
)

// openScope is one entry of the tape builder's explicit return-address
// stack: which kind of container is open and the tape index of its
// start_object/start_array entry, so the matching end entry can patch it
// (and be patched by it) once the container closes.
type openScope struct {
	kind      scopeKind
	startIdx  int
	firstPair bool // object: true until the first key has been consumed
}

// tapeBuilder runs Stage 2: a labeled-goto state machine over the Stage 1
// structural index, directly grounded on stage2_build_tape_amd64.go's
// unified_machine (object_begin, array_begin, object_continue,
// array_continue, scope_end, succeed, fail). Go has no goto-with-argument,
// so the RET_ADDRESS_* packing becomes an explicit stack of openScope
// values, and max_depth is enforced against the depth argument of
// parseContainer instead of the teacher's compiled-in 128-deep array.
type tapeBuilder struct {
	src      []byte
	idx      structuralIndex
	pos      int // index into idx.positions of the next unconsumed structural byte
	maxDepth int
	doc      Document
	stack    []openScope
}

func newTapeBuilder(src []byte, idx structuralIndex, maxDepth int) *tapeBuilder {
	return &tapeBuilder{
		src:      src,
		idx:      idx,
		maxDepth: maxDepth,
		doc: Document{
			Source: src,
			Tape:   make([]uint64, 0, len(idx.positions)+2),
		},
	}
}

func (b *tapeBuilder) errAt(offset int, kind ErrorKind, msg string) *ParseError {
	return newParseError(b.src, offset, kind, msg)
}

// peek returns the next unconsumed structural byte's offset and value, or
// ok=false at the end of the index.
func (b *tapeBuilder) peek() (offset int, c byte, ok bool) {
	if b.pos >= len(b.idx.positions) {
		return 0, 0, false
	}
	offset = int(b.idx.positions[b.pos])
	return offset, b.src[offset], true
}

func (b *tapeBuilder) advance() {
	b.pos++
}

// build runs the whole state machine and returns the finished Document.
// Grounded directly on stage2_build_tape_amd64.go's label sequence:
// start -> (value) -> succeed, with
// object_begin/array_begin/*_continue/scope_end handling container
// nesting and a single fail exit used by every error path.
func (b *tapeBuilder) build() (Document, error) {
	// The tape's first entry is a root marker patched, at the very end,
	// to point past the single top-level value.
	rootIdx := len(b.doc.Tape)
	b.doc.Tape = writeTag(b.doc.Tape, 0, TagRoot)

	if err := b.parseValue(0); err != nil {
		return Document{}, err
	}

	if offset, _, ok := b.peek(); ok {
		return Document{}, b.errAt(offset, ErrTrailingContent, "trailing content after top-level value")
	}

	endIdx := len(b.doc.Tape)
	b.doc.Tape = writeTag(b.doc.Tape, uint64(endIdx+1), TagRoot)
	patchPayload(b.doc.Tape, rootIdx, uint64(endIdx+1))
	return b.doc, nil
}

// parseValue parses one JSON value (scalar or container) at the given
// nesting depth, the state machine's "value" label. Containers recurse
// through parseContainer; scalars are decoded inline.
func (b *tapeBuilder) parseValue(depth int) error {
	offset, c, ok := b.peek()
	if !ok {
		return b.errAt(len(b.src), ErrUnexpectedEOF, "expected a value")
	}
	switch {
	case c == '{':
		return b.parseContainer(depth, scopeObject)
	case c == '[':
		return b.parseContainer(depth, scopeArray)
	case c == '"':
		return b.parseString()
	case c == 't':
		return b.parseKeyword(isValidTrueAtom, "true", func() { b.doc.Tape = writeTag(b.doc.Tape, 0, TagBoolTrue) })
	case c == 'f':
		return b.parseKeyword(isValidFalseAtom, "false", func() { b.doc.Tape = writeTag(b.doc.Tape, 0, TagBoolFalse) })
	case c == 'n':
		return b.parseKeyword(isValidNullAtom, "null", func() { b.doc.Tape = writeTag(b.doc.Tape, 0, TagNull) })
	case c == '-' || (c >= '0' && c <= '9'):
		return b.parseNumberAt(offset)
	default:
		return b.errAt(offset, ErrUnexpectedByte, fmt.Sprintf("unexpected byte %q where a value was expected", c))
	}
}

// parseContainer handles object_begin/array_begin and their matching
// scope_end, pushing an openScope and recursing into parseValue for each
// element via object_continue/array_continue.
func (b *tapeBuilder) parseContainer(depth int, kind scopeKind) error {
	if depth >= b.maxDepth {
		offset, _, _ := b.peek()
		return b.errAt(offset, ErrDepthExceeded, fmt.Sprintf("nesting depth exceeds maximum of %d", b.maxDepth))
	}
	startOffset, _, _ := b.peek()
	b.advance() // consume '{' or '['

	startIdx := len(b.doc.Tape)
	startTag := TagObjectStart
	endTag := TagObjectEnd
	if kind == scopeArray {
		startTag, endTag = TagArrayStart, TagArrayEnd
	}
	b.doc.Tape = writeTag(b.doc.Tape, 0, startTag) // patched once the end is known

	b.stack = append(b.stack, openScope{kind: kind, startIdx: startIdx, firstPair: true})

	offset, c, ok := b.peek()
	if !ok {
		return b.errAt(len(b.src), ErrUnexpectedEOF, "unterminated container")
	}
	closeByte := byte('}')
	if kind == scopeArray {
		closeByte = ']'
	}

	if c != closeByte {
		for {
			if kind == scopeObject {
				if err := b.parseObjectKey(); err != nil {
					return err
				}
			}
			if err := b.parseValue(depth + 1); err != nil {
				return err
			}
			offset, c, ok = b.peek()
			if !ok {
				return b.errAt(len(b.src), ErrUnexpectedEOF, "unterminated container")
			}
			if c == ',' {
				b.advance()
				continue
			}
			if c == closeByte {
				break
			}
			return b.errAt(offset, ErrUnexpectedByte, fmt.Sprintf("expected ',' or %q, got %q", closeByte, c))
		}
	}
	_ = startOffset
	b.advance() // consume '}' or ']'
	b.stack = b.stack[:len(b.stack)-1]

	endIdx := len(b.doc.Tape)
	b.doc.Tape = writeTag(b.doc.Tape, uint64(startIdx+1), endTag)
	patchPayload(b.doc.Tape, startIdx, uint64(endIdx+1))
	return nil
}

// parseObjectKey consumes one "key" : pair's key token (object_continue's
// key half); the value half is left to the regular parseValue call that
// follows it.
func (b *tapeBuilder) parseObjectKey() error {
	offset, c, ok := b.peek()
	if !ok {
		return b.errAt(len(b.src), ErrUnexpectedEOF, "expected object key")
	}
	if c != '"' {
		return b.errAt(offset, ErrUnexpectedByte, fmt.Sprintf("expected a string key, got %q", c))
	}
	if err := b.parseString(); err != nil {
		return err
	}
	offset, c, ok = b.peek()
	if !ok {
		return b.errAt(len(b.src), ErrUnexpectedEOF, "expected ':' after object key")
	}
	if c != ':' {
		return b.errAt(offset, ErrUnexpectedByte, fmt.Sprintf("expected ':' after object key, got %q", c))
	}
	b.advance()
	return nil
}

// parseString consumes the structural-index entries for one quoted
// string (open quote, scan to the matching close quote found by Stage 1)
// and appends its side-buffer descriptor plus tape entry.
func (b *tapeBuilder) parseString() error {
	openOffset, _, _ := b.peek()
	b.advance() // consume opening quote

	offset, c, ok := b.peek()
	if !ok {
		return b.errAt(len(b.src), ErrUnterminatedString, "unterminated string")
	}
	if c != '"' {
		return b.errAt(offset, ErrUnexpectedByte, "internal error: expected closing quote in structural index")
	}
	closeOffset := offset
	b.advance() // consume closing quote

	raw := b.src[openOffset+1 : closeOffset]
	escaped, err := validateStringContent(raw, b.src, openOffset+1)
	if err != nil {
		return err
	}
	descOffset := b.doc.appendStringDescriptor(uint32(openOffset+1), uint32(len(raw)), escaped)
	b.doc.Tape = writeTag(b.doc.Tape, descOffset, TagString)
	return nil
}

// validateStringContent scans raw (the bytes strictly between the
// quotes) for control characters (illegal unescaped per RFC 8259) and
// reports whether it contains an escape sequence, without decoding it —
// decoding stays lazy until a caller actually asks for the string's
// value. Only the escape character itself is checked here; a malformed
// \u sequence (bad hex digits, unpaired surrogate) is reported when the
// string is decoded.
func validateStringContent(raw, src []byte, base int) (escaped bool, err error) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == '\\' {
			escaped = true
			i++
			if i < len(raw) {
				switch raw[i] {
				case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				default:
					return false, newParseError(src, base+i-1, ErrInvalidEscape, fmt.Sprintf("invalid escape character %q in string", raw[i]))
				}
			}
			continue
		}
		if c < 0x20 {
			return false, newParseError(src, base+i, ErrUnexpectedByte, fmt.Sprintf("unescaped control character 0x%02x in string", c))
		}
	}
	return escaped, nil
}

// parseKeyword validates a true/false/null literal at the current
// structural position using the masked-word atom check from
// primitives.go, then advances past it. Keywords aren't flagged as
// structural by Stage 1 at every byte, only at their first byte, so this
// reads directly from src rather than consuming further structural-index
// entries.
func (b *tapeBuilder) parseKeyword(check func([]byte) bool, name string, emit func()) error {
	offset, _, _ := b.peek()
	if !check(b.src[offset:]) {
		return b.errAt(offset, ErrInvalidKeyword, fmt.Sprintf("invalid literal, expected %q", name))
	}
	emit()
	b.skipPastLiteral(offset, len(name))
	return b.validateGap(offset + len(name))
}

// validateGap checks that every byte between end (just past a scalar
// literal this module just parsed) and the next structural-index entry
// (or end of input) is whitespace. Stage 1 only indexes the first byte
// of a number/keyword, so without this check a second literal placed
// right after the first with only a space between them (missing the
// required comma) would silently vanish instead of being rejected.
func (b *tapeBuilder) validateGap(end int) error {
	limit := len(b.src)
	if b.pos < len(b.idx.positions) {
		limit = int(b.idx.positions[b.pos])
	}
	for i := end; i < limit; i++ {
		if byteClass[b.src[i]]&byteClassWhitespace == 0 {
			return b.errAt(i, ErrUnexpectedByte, fmt.Sprintf("unexpected byte %q after value", b.src[i]))
		}
	}
	return nil
}

// skipPastLiteral advances pos past a non-structural literal (a keyword
// or a number) of the given byte length starting at offset, re-syncing
// with whatever structural-index entry comes next.
func (b *tapeBuilder) skipPastLiteral(offset, length int) {
	end := offset + length
	for b.pos < len(b.idx.positions) && int(b.idx.positions[b.pos]) < end {
		b.pos++
	}
}

// parseNumberAt parses a number literal starting at offset (a
// non-structural byte run, just like keywords) and appends its tape
// entry via the SWAR-accelerated scanner in primitives.go.
func (b *tapeBuilder) parseNumberAt(offset int) error {
	n, err := parseNumber(b.src[offset:])
	if err != nil {
		return b.errAt(offset, ErrInvalidNumber, err.Error())
	}
	if n.isFloat {
		b.doc.Tape = writeFloat64(b.doc.Tape, n.f)
	} else {
		b.doc.Tape = writeInt64(b.doc.Tape, n.i)
	}
	b.skipPastLiteral(offset, n.length)
	return b.validateGap(offset + n.length)
}
