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

// ParseToTape runs both stages of the fast path — the structural index
// builder (Stage 1) and the tape builder (Stage 2) — and returns the
// resulting Document, without materializing any value tree. This is the
// module's primary entry point; everything else (ParseLazy, Parse,
// ParseSafe) is a thin convenience wrapper around it.
func ParseToTape(buf []byte, opts ...ParserOption) (Document, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	src := buf
	if cfg.copyStrings {
		src = make([]byte, len(buf))
		copy(src, buf)
	}

	width := selectLaneWidth(src)
	idx, err := buildStructuralIndex(src, width)
	if err != nil {
		return Document{}, err
	}

	b := newTapeBuilder(src, idx, cfg.maxDepth)
	return b.build()
}

// ParseLazy runs ParseToTape and returns the document's root iterator,
// positioned just before the root entry (the first Advance reads it), for
// callers who want to start navigating immediately instead of handling
// the Document value themselves.
func ParseLazy(buf []byte, opts ...ParserOption) (Iter, error) {
	doc, err := ParseToTape(buf, opts...)
	if err != nil {
		return Iter{}, err
	}
	return doc.Iter(), nil
}

// Parse parses buf and materializes it into plain Go values
// (map[string]interface{}, []interface{}, string, float64 for every
// number, bool, nil) via the ValueTree compatibility API (see
// valuetree.go), an
// external collaborator outside the tape/lazy-view core. Most callers
// should prefer ParseToTape/ParseLazy and only reach for Parse when they
// genuinely need a conventional decoded tree.
func Parse(buf []byte, opts ...ParserOption) (interface{}, error) {
	doc, err := ParseToTape(buf, opts...)
	if err != nil {
		return nil, err
	}
	return NewValueTree(&doc).Interface()
}

// ParseSafe is like Parse but recovers from any panic raised while
// walking a Document produced by ParseToTape (e.g. a corrupt tape
// invariant violation) and reports it as an error instead, for callers
// that parse untrusted input and cannot tolerate a crash under any
// circumstance.
func ParseSafe(buf []byte, opts ...ParserOption) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &ParseError{Kind: ErrUnexpectedByte, Pos: Position{Line: 1, Column: 1}, Msg: "internal error recovered in ParseSafe"}
		}
	}()
	return Parse(buf, opts...)
}
