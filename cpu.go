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

// SupportedCPU reports whether the running CPU is capable of the widest
// scan tiling this module knows about. Kept as an advisory query for
// callers (e.g. capacity planning, diagnostics), the same role
// simdjson_amd64.go's SupportedCPU plays as a hard asm-dispatch gate —
// except here it can never affect correctness, only throughput, since
// buildStructuralIndex's result is identical at every laneWidth.
func SupportedCPU() bool {
	return cpuid.CPU.Supports(cpuid.AVX2)
}

// CPUFeatures returns a short human-readable summary of the CPU features
// this module's adaptive dispatch considers, for diagnostics.
func CPUFeatures() string {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX2):
		return "avx2"
	case cpuid.CPU.Supports(cpuid.SSE41):
		return "sse4.1"
	default:
		return "scalar"
	}
}
