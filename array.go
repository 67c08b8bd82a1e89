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

// Array is a lazy view over a JSON array: a restricted tape scope plus
// the offset of its first element.
type Array struct {
	scope
}

// Iter returns an iterator positioned just before the array's first
// element; the first Advance reads it.
func (a *Array) Iter() Iter {
	return Iter{doc: a.doc, off: a.off - 1, addNext: 1}
}

// Len counts the array's direct elements by walking the tape once. O(n)
// in the number of elements, not bytes, since containers are skipped via
// their matched end payload.
func (a *Array) Len() int {
	n := 0
	it := a.Iter()
	for it.Advance() != TypeNone {
		n++
	}
	return n
}

// At returns the element at index idx, or ok=false if idx is out of
// range. Lazy access is infallible by design: indexing never errors, it
// reports absence.
func (a *Array) At(idx int) (Iter, bool) {
	if idx < 0 {
		return Iter{}, false
	}
	it := a.Iter()
	for n := 0; it.Advance() != TypeNone; n++ {
		if n == idx {
			return it, true
		}
	}
	return Iter{}, false
}

// Interface materializes the array into a []interface{}.
func (a *Array) Interface() ([]interface{}, error) {
	out := make([]interface{}, 0, a.Len())
	it := a.Iter()
	for it.Advance() != TypeNone {
		v, err := it.Interface()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MarshalJSON re-serializes the array to compact JSON.
func (a *Array) MarshalJSON() ([]byte, error) {
	it := a.Iter()
	if it.PeekNextTag() == TagEnd {
		return []byte("[]"), nil
	}
	return errArrayMarshal(&it)
}

func errArrayMarshal(it *Iter) ([]byte, error) {
	dst := []byte("[")
	first := true
	for it.Advance() != TypeNone {
		if !first {
			dst = append(dst, ',')
		}
		first = false
		var err error
		dst, err = it.MarshalJSONBuffer(dst)
		if err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}
