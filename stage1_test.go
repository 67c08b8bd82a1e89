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
	"reflect"
	"testing"
)

func positionsOf(t *testing.T, buf string, width laneWidth) []uint32 {
	t.Helper()
	idx, err := buildStructuralIndex([]byte(buf), width)
	if err != nil {
		t.Fatalf("buildStructuralIndex(%q) error: %v", buf, err)
	}
	return idx.positions
}

func TestBuildStructuralIndexPunctuation(t *testing.T) {
	buf := `{"a":1,"b":[2,3]}`
	want := []uint32{0, 1, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 16}
	got := positionsOf(t, buf, lane8)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("positions = %v, want %v", got, want)
	}
}

func TestBuildStructuralIndexScalarStarts(t *testing.T) {
	// Every primitive literal's first byte must be indexed even though
	// digits/letters aren't punctuation, so Stage 2 can drive entirely
	// off the structural index.
	buf := `[1,true,false,null,-2.5]`
	idx, err := buildStructuralIndex([]byte(buf), lane8)
	if err != nil {
		t.Fatalf("buildStructuralIndex error: %v", err)
	}
	wantOffsets := map[int]byte{
		0:  '[',
		1:  '1',
		2:  ',',
		3:  't',
		7:  ',',
		8:  'f',
		13: ',',
		14: 'n',
		18: ',',
		19: '-',
		23: ']',
	}
	got := map[int]byte{}
	for _, p := range idx.positions {
		got[int(p)] = buf[p]
	}
	if !reflect.DeepEqual(got, wantOffsets) {
		t.Errorf("structural positions = %v, want %v", got, wantOffsets)
	}
}

func TestBuildStructuralIndexStringsMasked(t *testing.T) {
	buf := `"a{b}c,d:e"`
	idx, err := buildStructuralIndex([]byte(buf), lane8)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := []uint32{0, 10} // only the open and close quotes
	if !reflect.DeepEqual(idx.positions, want) {
		t.Errorf("positions = %v, want %v", idx.positions, want)
	}
}

func TestBuildStructuralIndexEscapedQuote(t *testing.T) {
	buf := `"a\"b"`
	idx, err := buildStructuralIndex([]byte(buf), lane8)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := []uint32{0, 5} // the escaped quote at index 3 must not close the string
	if !reflect.DeepEqual(idx.positions, want) {
		t.Errorf("positions = %v, want %v", idx.positions, want)
	}
}

func TestBuildStructuralIndexLaneWidthsAgree(t *testing.T) {
	docs := []string{
		`{"a":1,"b":[2,3,true,false,null,"x\\y\"z",-4.5e10]}`,
		`[[[[[1]]]]]`,
		`{}`,
		`[]`,
		`""`,
		`"` + string(make([]byte, 200)) + `"`,
	}
	for _, doc := range docs {
		s8 := positionsOf(t, doc, lane8)
		s16 := positionsOf(t, doc, lane16)
		s32 := positionsOf(t, doc, lane32)
		if !reflect.DeepEqual(s8, s16) || !reflect.DeepEqual(s8, s32) {
			t.Errorf("lane widths disagree for %q:\n lane8=%v\n lane16=%v\n lane32=%v", doc, s8, s16, s32)
		}
	}
}
