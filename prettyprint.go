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

import "github.com/bytedance/sonic"

// PrettyPrint renders doc as indented JSON using the given prefix and
// indent strings, the same signature as encoding/json.MarshalIndent.
// Pretty-printing is an external collaborator of the tape/lazy-view
// core, not a core concern itself; rather than hand-write an indenting
// re-serializer, this re-serializes the lazy view to compact JSON and
// asks sonic to reformat it, which keeps the core package free of
// presentation logic entirely.
func PrettyPrint(doc *Document, prefix, indent string) ([]byte, error) {
	compact, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf interface{}
	if err := sonic.Unmarshal(compact, &buf); err != nil {
		return nil, err
	}
	return sonic.MarshalIndent(buf, prefix, indent)
}

// PrettyPrintIter is PrettyPrint for an arbitrary lazy view (for example
// one Object.FindKey/Array.At result), not just a whole Document.
func PrettyPrintIter(it *Iter, prefix, indent string) ([]byte, error) {
	compact, err := it.MarshalJSONBuffer(nil)
	if err != nil {
		return nil, err
	}
	var buf interface{}
	if err := sonic.Unmarshal(compact, &buf); err != nil {
		return nil, err
	}
	return sonic.MarshalIndent(buf, prefix, indent)
}
