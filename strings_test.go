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

import "testing"

func TestUnescapeStringBasics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`hello`, "hello"},
		{`a\nb`, "a\nb"},
		{`a\tb\rc`, "a\tb\rc"},
		{`a\\b`, `a\b`},
		{`a\/b`, "a/b"},
		{`A`, "A"},
		{`😀`, "😀"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := unescapeString([]byte(tc.in))
			if err != nil {
				t.Fatalf("unescapeString(%q) error: %v", tc.in, err)
			}
			if string(got) != tc.want {
				t.Errorf("unescapeString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUnescapeStringRejectsUnpairedSurrogates(t *testing.T) {
	tests := []string{
		`\uD800`,         // lone high surrogate, no follower
		`\uDC00`,         // lone low surrogate
		`\uD800A`,   // high surrogate followed by a plain character, not an escape
		`\uD800\uD800`,   // two high surrogates
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := unescapeString([]byte(in)); err == nil {
				t.Errorf("unescapeString(%q) = nil error, want error", in)
			}
		})
	}
}

func TestUnescapeStringInvalidEscape(t *testing.T) {
	if _, err := unescapeString([]byte(`a\xb`)); err == nil {
		t.Error("expected error for invalid escape character")
	}
}

func TestUnescapeStringTrailingBackslash(t *testing.T) {
	if _, err := unescapeString([]byte(`a\`)); err == nil {
		t.Error("expected error for trailing backslash")
	}
}
