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
	"bytes"
	"errors"
)

// Object is a lazy view over a JSON object: a restricted tape scope plus
// the offset of its first key.
type Object struct {
	scope
}

// pairIter walks key/value pairs; key() returns the key bytes for the pair
// last read by advance(), and value is the iterator positioned to read
// the corresponding value with a subsequent Advance/AdvanceInto.
type pairIter struct {
	it  Iter
	key []byte
}

func (o *Object) pairs() pairIter {
	return pairIter{it: Iter{doc: o.doc, off: o.off - 1, addNext: 1}}
}

// next advances to the next key/value pair, returning false at the end of
// the object.
func (p *pairIter) next() (bool, error) {
	if p.it.Advance() == TypeNone {
		return false, nil
	}
	if !p.it.IsString() {
		return false, errors.New("corrupt tape: object key is not a string")
	}
	kb, err := p.it.StringBytes()
	if err != nil {
		return false, err
	}
	p.key = kb
	if p.it.Advance() == TypeNone {
		return false, errors.New("corrupt tape: object key with no value")
	}
	return true, nil
}

// ForEach calls fn once per key/value pair in document order, stopping
// early (without error) if fn returns false. Callback-based traversal
// avoids building a map for consumers that only need to scan.
func (o *Object) ForEach(fn func(key []byte, val Iter) (cont bool, err error)) error {
	p := o.pairs()
	for {
		ok, err := p.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cont, err := fn(p.key, p.it)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// Len counts the object's key/value pairs.
func (o *Object) Len() int {
	n := 0
	p := o.pairs()
	for {
		ok, err := p.next()
		if err != nil || !ok {
			return n
		}
		n++
	}
}

// FindKey looks up key by exact byte match and returns its value iterator,
// or ok=false if absent — lazy access is infallible by design, so a
// missing key is never an error. Uses bytes.Equal, which the compiler
// vectorizes on amd64/arm64, as the portable equivalent of an explicit
// SIMD key compare.
func (o *Object) FindKey(key string) (Iter, bool) {
	kb := []byte(key)
	p := o.pairs()
	for {
		ok, err := p.next()
		if err != nil || !ok {
			return Iter{}, false
		}
		if bytes.Equal(p.key, kb) {
			return p.it, true
		}
	}
}

// Map materializes the object into a map[string]interface{}.
func (o *Object) Map(dst map[string]interface{}) (map[string]interface{}, error) {
	if dst == nil {
		dst = make(map[string]interface{}, o.Len())
	}
	err := o.ForEach(func(key []byte, val Iter) (bool, error) {
		v, err := val.Interface()
		if err != nil {
			return false, err
		}
		dst[string(key)] = v
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// MarshalJSON re-serializes the object to compact JSON.
func (o *Object) MarshalJSON() ([]byte, error) {
	dst := []byte("{")
	first := true
	err := o.ForEach(func(key []byte, val Iter) (bool, error) {
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = append(dst, '"')
		dst = escapeBytes(dst, key)
		dst = append(dst, '"', ':')
		var err error
		dst, err = val.MarshalJSONBuffer(dst)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return append(dst, '}'), nil
}
