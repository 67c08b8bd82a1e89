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
	"strconv"
	"strings"
)

// AtPointer navigates the document from its root value using an RFC 6901
// JSON Pointer (e.g. "/a/b/0") and returns the value found there, or
// ok=false if any segment is absent or type-mismatched. Generalized from
// parsed_object.go's FindPath, which only matched slash-joined object
// keys; this adds the full RFC 6901 token grammar (~1 -> '/', ~0 -> '~'
// unescaping, decimal array indices, and the "" empty pointer meaning the
// whole document). Only malformed pointer syntax is an error; any other
// navigation failure (missing key, out-of-range index, descent into a
// scalar) reports ok=false instead.
func (d *Document) AtPointer(pointer string) (Iter, bool, error) {
	it := d.Iter()
	if it.Advance() != TypeRoot {
		return Iter{}, false, nil
	}
	var cur Iter
	if _, _, err := it.Root(&cur); err != nil {
		return Iter{}, false, nil
	}
	return navigatePointer(cur, pointer)
}

// Pointer navigates from the current value using an RFC 6901 JSON
// Pointer, for use on a sub-value already obtained from Array/Object
// lookups.
func (i *Iter) Pointer(pointer string) (Iter, bool, error) {
	return navigatePointer(*i, pointer)
}

func navigatePointer(cur Iter, pointer string) (Iter, bool, error) {
	if pointer == "" {
		return cur, true, nil
	}
	if pointer[0] != '/' {
		return Iter{}, false, newPointerSyntaxError(pointer)
	}
	tokens := strings.Split(pointer[1:], "/")
	for _, tok := range tokens {
		tok = unescapePointerToken(tok)
		switch cur.Type() {
		case TypeObject:
			obj, err := cur.Object(nil)
			if err != nil {
				return Iter{}, false, nil
			}
			v, ok := obj.FindKey(tok)
			if !ok {
				return Iter{}, false, nil
			}
			cur = v
		case TypeArray:
			if len(tok) > 1 && tok[0] == '0' {
				// RFC 6901: array-index tokens are a decimal index with
				// no leading zeros, except the literal "0" itself.
				return Iter{}, false, nil
			}
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 {
				return Iter{}, false, nil
			}
			arr, err := cur.Array(nil)
			if err != nil {
				return Iter{}, false, nil
			}
			v, ok := arr.At(idx)
			if !ok {
				return Iter{}, false, nil
			}
			cur = v
		default:
			return Iter{}, false, nil
		}
	}
	return cur, true, nil
}

// unescapePointerToken applies RFC 6901's two-step escape rules, in the
// mandated order: ~1 decodes to '/' and ~0 decodes to '~'; decoding ~0
// first would corrupt a literal "~01" token.
func unescapePointerToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

func newPointerSyntaxError(pointer string) *ParseError {
	return &ParseError{
		Kind: ErrUnexpectedByte,
		Pos:  Position{Offset: 0, Line: 1, Column: 1},
		Msg:  "invalid JSON Pointer syntax: " + strconv.Quote(pointer) + " (must be empty or start with '/')",
	}
}
