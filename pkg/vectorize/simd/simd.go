// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package simd selects between the scalar kernels and the lane-chunked
// kernels of the vectorize packages.
package simd

import (
	"golang.org/x/sys/cpu"

	"github.com/matrixorigin/batchcore/pkg/container/types"
)

// Lanes is the number of rows a lane-chunked kernel handles per step.
const Lanes = types.SIMDLanes

// Detected reports whether the cpu has vector units.
var Detected bool

// Enabled routes every kernel family to its lane-chunked variant. Both
// variants produce identical results. It is read without synchronization,
// so change it only through Configure before any kernel runs.
var Enabled bool

func init() {
	Detected = cpu.X86.HasAVX2 || cpu.X86.HasAVX512 || cpu.ARM64.HasASIMD
	Enabled = Detected
}

// Configure selects the lane-chunked kernels unless disabled is set or
// the cpu has no vector units. Call it once at startup.
func Configure(disabled bool) {
	Enabled = Detected && !disabled
}

// Steps returns the number of full lane steps of n rows.
func Steps(n int) int {
	return n / Lanes
}
