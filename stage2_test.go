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
	"testing"
)

func mustParse(t *testing.T, in string) Document {
	t.Helper()
	doc, err := ParseToTape([]byte(in))
	if err != nil {
		t.Fatalf("ParseToTape(%q) error: %v", in, err)
	}
	return doc
}

func TestParseToTapeScalars(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"-17", "-17"},
		{"3.5", "3.5"},
		{"true", "true"},
		{"false", "false"},
		{"null", "null"},
		{`"hi"`, `"hi"`},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			doc := mustParse(t, tc.in)
			out, err := doc.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON error: %v", err)
			}
			if string(out) != tc.want {
				t.Errorf("round-trip %q = %q, want %q", tc.in, out, tc.want)
			}
		})
	}
}

func TestParseToTapeRoundTrip(t *testing.T) {
	tests := []string{
		`{}`,
		`[]`,
		`{"a":1,"b":[2,3,4],"c":{"d":true,"e":null},"f":"g\"h"}`,
		`[1,2,3,[4,5,[6,7]],{"x":8}]`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			doc := mustParse(t, in)
			out, err := doc.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON error: %v", err)
			}
			doc2 := mustParse(t, string(out))
			out2, err := doc2.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON (round 2) error: %v", err)
			}
			if string(out) != string(out2) {
				t.Errorf("re-parse/re-serialize not stable: %q != %q", out, out2)
			}
		})
	}
}

func TestParseToTapeObjectNavigation(t *testing.T) {
	doc := mustParse(t, `{"name":"ada","age":36,"tags":["math","cs"]}`)
	it := doc.Iter()
	it.Advance() // root
	var root Iter
	if _, _, err := it.Root(&root); err != nil {
		t.Fatalf("Root error: %v", err)
	}
	obj, err := root.Object(nil)
	if err != nil {
		t.Fatalf("Object error: %v", err)
	}
	name, ok := obj.FindKey("name")
	if !ok {
		t.Fatal("FindKey(name) not found")
	}
	if s := name.AsString(); s != "ada" {
		t.Errorf("name = %q, want ada", s)
	}
	age, ok := obj.FindKey("age")
	if !ok {
		t.Fatal("FindKey(age) not found")
	}
	if v := age.AsInt(); v != 36 {
		t.Errorf("age = %d, want 36", v)
	}
	if _, ok := obj.FindKey("missing"); ok {
		t.Error("FindKey(missing) found a value, want not found")
	}
	tags, ok := obj.FindKey("tags")
	if !ok {
		t.Fatal("FindKey(tags) not found")
	}
	arr, err := tags.Array(nil)
	if err != nil {
		t.Fatalf("Array error: %v", err)
	}
	if n := arr.Len(); n != 2 {
		t.Fatalf("tags Len() = %d, want 2", n)
	}
	first, ok := arr.At(0)
	if !ok || first.AsString() != "math" {
		t.Errorf("tags[0] = %q, ok=%v, want math", first.AsString(), ok)
	}
	if _, ok := arr.At(5); ok {
		t.Error("At(5) found a value, want not found")
	}
}

func TestParseToTapeDepthLimit(t *testing.T) {
	deep := ""
	for i := 0; i < 10; i++ {
		deep += "["
	}
	deep += "1"
	for i := 0; i < 10; i++ {
		deep += "]"
	}
	if _, err := ParseToTape([]byte(deep), WithMaxDepth(3)); err == nil {
		t.Error("expected depth-exceeded error, got nil")
	}
	if _, err := ParseToTape([]byte(deep), WithMaxDepth(20)); err != nil {
		t.Errorf("unexpected error with sufficient depth: %v", err)
	}
}

func TestParseToTapeMalformed(t *testing.T) {
	tests := []string{
		`{`,
		`[1,2`,
		`{"a":}`,
		`{"a" 1}`,
		`[1 2]`,
		`tru`,
		`"unterminated`,
		`"bad \x escape"`,
		`01`,
		`1.`,
		`1 2`,
		``,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseToTape([]byte(in)); err == nil {
				t.Errorf("ParseToTape(%q) = nil error, want error", in)
			}
		})
	}
}

func TestParseToTapeRejectsUnpairedSurrogate(t *testing.T) {
	doc := mustParse(t, `"\udbff"`)
	it := doc.Iter()
	it.Advance()
	var root Iter
	if _, _, err := it.Root(&root); err != nil {
		t.Fatalf("Root error: %v", err)
	}
	if _, err := root.String(); err == nil {
		t.Error("expected error decoding unpaired surrogate, got nil")
	}
}

func TestAtPointer(t *testing.T) {
	doc := mustParse(t, `{"a":{"b":[10,20,30]},"c":"top"}`)
	tests := []struct {
		pointer string
		wantOK  bool
		wantStr string
	}{
		{"", true, `{"a":{"b":[10,20,30]},"c":"top"}`},
		{"/c", true, `"top"`},
		{"/a/b/1", true, `20`},
		{"/a/b/9", false, ""},
		{"/a/b/0", true, `10`},
		{"/a/b/01", false, ""},
		{"/missing", false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.pointer, func(t *testing.T) {
			v, ok, err := doc.AtPointer(tc.pointer)
			if err != nil {
				t.Fatalf("AtPointer(%q) error: %v", tc.pointer, err)
			}
			if ok != tc.wantOK {
				t.Fatalf("AtPointer(%q) ok = %v, want %v", tc.pointer, ok, tc.wantOK)
			}
			if !ok {
				return
			}
			out, err := v.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON error: %v", err)
			}
			if string(out) != tc.wantStr {
				t.Errorf("AtPointer(%q) = %q, want %q", tc.pointer, out, tc.wantStr)
			}
		})
	}
}

func TestAtPointerEscaping(t *testing.T) {
	doc := mustParse(t, `{"a/b":1,"c~d":2}`)
	v, ok, err := doc.AtPointer("/a~1b")
	if err != nil || !ok {
		t.Fatalf("AtPointer(/a~1b) ok=%v err=%v", ok, err)
	}
	if v.AsInt() != 1 {
		t.Errorf("a/b = %d, want 1", v.AsInt())
	}
	v, ok, err = doc.AtPointer("/c~0d")
	if err != nil || !ok {
		t.Fatalf("AtPointer(/c~0d) ok=%v err=%v", ok, err)
	}
	if v.AsInt() != 2 {
		t.Errorf("c~d = %d, want 2", v.AsInt())
	}
}
