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

// config holds the resolved settings a parse runs with, built up via
// the function-option pattern below.
type config struct {
	copyStrings bool
	maxDepth    int
}

func defaultConfig() config {
	return config{
		copyStrings: false,
		maxDepth:    defaultMaxDepth,
	}
}

// ParserOption configures a call to ParseToTape (and to the ParseLazy,
// Parse and ParseSafe wrappers, which pass options through to it).
type ParserOption func(*config)

// WithCopyStrings makes the returned Document independent of the input
// buffer by copying Source instead of retaining a reference to it. The
// teacher defaults to referencing the caller's buffer directly
// (zero-copy); set this when the caller intends to reuse or release buf
// after parsing.
func WithCopyStrings(copy bool) ParserOption {
	return func(c *config) { c.copyStrings = copy }
}

// WithMaxDepth overrides the nesting depth limit (default 1000). A
// non-positive value is ignored.
func WithMaxDepth(depth int) ParserOption {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}
