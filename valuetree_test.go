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

func TestParseMaterializesTree(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":[2,3],"c":"s"}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := map[string]interface{}{
		"a": float64(1),
		"b": []interface{}{float64(2), float64(3)},
		"c": "s",
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Parse() = %#v, want %#v", v, want)
	}
}

func TestValueTreeDecode(t *testing.T) {
	doc, err := ParseToTape([]byte(`{"name":"ada","age":36}`))
	if err != nil {
		t.Fatalf("ParseToTape error: %v", err)
	}
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	var p person
	if err := NewValueTree(&doc).Decode(&p); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if p.Name != "ada" || p.Age != 36 {
		t.Errorf("Decode() = %+v, want {ada 36}", p)
	}
}

func TestParseSafeRecoversFromMalformedInput(t *testing.T) {
	if _, err := ParseSafe([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed input, got nil")
	}
}

func TestPrettyPrint(t *testing.T) {
	doc, err := ParseToTape([]byte(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("ParseToTape error: %v", err)
	}
	out, err := PrettyPrint(&doc, "", "  ")
	if err != nil {
		t.Fatalf("PrettyPrint error: %v", err)
	}
	want := "{\n  \"a\": 1,\n  \"b\": 2\n}"
	if string(out) != want {
		t.Errorf("PrettyPrint() = %q, want %q", out, want)
	}
}
