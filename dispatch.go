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

import "github.com/klauspost/cpuid/v2"

// Adaptive dispatch picks a structural-index lane width from two
// independent signals: a content sniff of the input, and a CPU
// capability advisory (cpuAdvisory caps the width at what the CPU
// supports, the content sniff decides which width to prefer). Every
// width produces an identical structural index (see stage1.go), so the
// choice here is purely a throughput tuning decision, never a
// correctness one.

// sniffSample caps how many leading bytes of the input are inspected by
// contentProfile, keeping dispatch O(1) in document size.
const sniffSample = 1024

// contentProfile summarizes the digit/quote/structural-byte ratios of a
// sample of the input, used to bias the lane width toward documents that
// are mostly numeric, mostly string-heavy, or densely nested.
type contentProfile struct {
	digitRatio      float64
	quoteRatio      float64
	structuralRatio float64
}

func sniffContent(buf []byte) contentProfile {
	n := len(buf)
	if n > sniffSample {
		n = sniffSample
	}
	if n == 0 {
		return contentProfile{}
	}
	var digits, quotes, structural int
	for _, c := range buf[:n] {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '"':
			quotes++
		}
		if byteClass[c]&byteClassStructural != 0 {
			structural++
		}
	}
	f := float64(n)
	return contentProfile{
		digitRatio:      float64(digits) / f,
		quoteRatio:      float64(quotes) / f,
		structuralRatio: float64(structural) / f,
	}
}

// cpuAdvisory reports the widest lane the local CPU can exercise
// usefully. This module has no vector intrinsics to dispatch to, so the
// advisory only ever widens the *tiling* used by the portable scan in
// stage1.go; it can never change the result. Grounded on
// simdjson_amd64.go's use of cpuid.CPU.Supports to gate AVX2/SSE4 code
// paths.
func cpuAdvisory() laneWidth {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		return lane32
	case cpuid.CPU.Supports(cpuid.SSE41):
		return lane16
	default:
		return lane8
	}
}

// digitHeavyThreshold and quoteHeavyThreshold are the content-sniff
// thresholds that pick a scan variant: documents that are more than a
// fifth digits by byte count favor a number-heavy variant, and
// documents with more than 3% quote bytes favor a string-heavy variant.
const (
	digitHeavyThreshold = 0.20
	quoteHeavyThreshold = 0.03
)

// selectLaneWidth combines the content profile and CPU advisory into a
// single lane width decision for a document of the given size. Small
// documents always use the scalar width: the per-call overhead of a wider
// tiling dwarfs any benefit below a few hundred bytes.
func selectLaneWidth(buf []byte) laneWidth {
	const smallDocThreshold = 256
	if len(buf) < smallDocThreshold {
		return lane8
	}
	advisory := cpuAdvisory()
	profile := sniffContent(buf)
	switch {
	case profile.digitRatio > digitHeavyThreshold:
		// Number-heavy: the SWAR digit-block decoder in primitives.go
		// benefits most from the widest tiling the CPU can usefully
		// drive, so take the full advisory ceiling.
		return advisory
	case profile.quoteRatio > quoteHeavyThreshold:
		// String-heavy: quote/escape bookkeeping dominates the per-word
		// cost here, so a plain, narrower scan outperforms wide tiling;
		// cap the width at lane16 (lane8 stays lane8).
		if advisory == lane8 {
			return lane8
		}
		return lane16
	default:
		// Balanced: neither signal dominates, so default to the CPU's
		// own ceiling.
		return advisory
	}
}

// SniffContent exposes the digit/quote/structural-byte ratios
// selectLaneWidth computes over up to the first 1 KiB of buf, for
// callers that want to log or inspect the dispatch decision. Only
// digitRatio and quoteRatio currently gate a lane-width branch;
// structuralRatio is tracked alongside them as a diagnostic signal.
func SniffContent(buf []byte) (digitRatio, quoteRatio, structuralRatio float64) {
	p := sniffContent(buf)
	return p.digitRatio, p.quoteRatio, p.structuralRatio
}
