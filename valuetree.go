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

import jsoniter "github.com/json-iterator/go"

// ValueTree is the DOM-style compatibility layer: an external
// collaborator outside the tape/lazy-view core design. Rather than
// hand-roll a second tree-building parser, it re-serializes a
// Document's lazy view back to compact JSON (Iter.MarshalJSONBuffer)
// and hands that to jsoniter's encoding/json-compatible decoder, which
// is the idiomatic Go way to get a conventional map/slice tree without
// maintaining two parsers.
type ValueTree struct {
	doc *Document
}

// jsonAPI is a single shared, pre-configured codec instance instead of
// building one per call.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// NewValueTree wraps doc for tree materialization.
func NewValueTree(doc *Document) *ValueTree {
	return &ValueTree{doc: doc}
}

// Interface decodes the whole document into map[string]interface{},
// []interface{}, or a scalar, matching encoding/json's default decode
// targets. When an object repeats a key, the last occurrence wins.
func (v *ValueTree) Interface() (interface{}, error) {
	buf, err := v.doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := jsonAPI.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode decodes the whole document into dst, the same target semantics
// as encoding/json.Unmarshal (dst must be a non-nil pointer).
func (v *ValueTree) Decode(dst interface{}) error {
	buf, err := v.doc.MarshalJSON()
	if err != nil {
		return err
	}
	return jsonAPI.Unmarshal(buf, dst)
}
