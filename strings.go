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
	"unicode/utf16"
	"unicode/utf8"
)

// unescapeString processes JSON string escapes in raw (the bytes between
// the quotes, as found in source) and returns a newly allocated,
// unescaped string. Called lazily, on demand, the first time a caller
// asks for the value of a string that Stage 1 flagged as containing a
// backslash; strings without escapes are returned directly from Source
// with no allocation (see Document.stringBytesAt).
func unescapeString(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 >= len(raw) {
			return nil, errors.New("unescapeString: trailing backslash")
		}
		switch raw[i+1] {
		case '"':
			out = append(out, '"')
			i += 2
		case '\\':
			out = append(out, '\\')
			i += 2
		case '/':
			out = append(out, '/')
			i += 2
		case 'b':
			out = append(out, '\b')
			i += 2
		case 'f':
			out = append(out, '\f')
			i += 2
		case 'n':
			out = append(out, '\n')
			i += 2
		case 'r':
			out = append(out, '\r')
			i += 2
		case 't':
			out = append(out, '\t')
			i += 2
		case 'u':
			r, consumed, err := decodeUnicodeEscape(raw[i:])
			if err != nil {
				return nil, err
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			out = append(out, buf[:n]...)
			i += consumed
		default:
			return nil, errors.New("unescapeString: invalid escape character")
		}
	}
	return out, nil
}

// decodeUnicodeEscape decodes a \uXXXX escape (and, for a high surrogate,
// the paired \uXXXX low surrogate that must immediately follow) starting
// at s[0] == '\\'. It returns the decoded rune and the number of bytes of
// s consumed. Unpaired surrogates are rejected outright in favor of
// strict RFC 8259 rejection, unlike the lenient accept-anything
// parse_string_test.go documents as a quirk of its own asm fast path.
func decodeUnicodeEscape(s []byte) (rune, int, error) {
	if len(s) < 6 {
		return 0, 0, errors.New("unescapeString: truncated \\u escape")
	}
	r1, err := hex4(s[2:6])
	if err != nil {
		return 0, 0, err
	}
	if utf16.IsSurrogate(rune(r1)) {
		if r1 >= 0xdc00 {
			return 0, 0, errors.New("unescapeString: unpaired low surrogate")
		}
		if len(s) < 12 || s[6] != '\\' || s[7] != 'u' {
			return 0, 0, errors.New("unescapeString: high surrogate not followed by \\u escape")
		}
		r2, err := hex4(s[8:12])
		if err != nil {
			return 0, 0, err
		}
		dec := utf16.DecodeRune(rune(r1), rune(r2))
		if dec == utf8.RuneError {
			return 0, 0, errors.New("unescapeString: invalid surrogate pair")
		}
		return dec, 12, nil
	}
	return rune(r1), 6, nil
}

func hex4(s []byte) (uint32, error) {
	var v uint32
	for _, c := range s {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, errors.New("unescapeString: invalid hex digit in \\u escape")
		}
	}
	return v, nil
}
