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

package prehash

import (
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

// hashKeys hashes row i of a column that has no lane arithmetic of its own.
// Its kernels only chunk the row dispatch by lanes.
type hashKeys interface {
	len() int
	hash(i int) int64
}

type float64Keys []float64

func (ks float64Keys) len() int { return len(ks) }

func (ks float64Keys) hash(i int) int64 { return Float64(ks[i]) }

type fixedKeys struct {
	data  []byte
	width int
}

func newFixedKeys(data []byte, width int) fixedKeys {
	if width <= 0 || len(data)%width != 0 {
		panic(moerr.NewInvalidArgNoCtx("fixed bytes width", width))
	}
	return fixedKeys{data: data, width: width}
}

func (ks fixedKeys) len() int { return len(ks.data) / ks.width }

func (ks fixedKeys) hash(i int) int64 { return Bytes(ks.data[i*ks.width : (i+1)*ks.width]) }

func ConstructFloat64(out []int64, ks []float64, extend bool) {
	apply(out, float64Keys(ks), extend)
}

func ConstructFloat64Sels(out []int64, ks []float64, sels []int64, extend bool) {
	applySels(out, float64Keys(ks), sels, extend)
}

func ConstructFloat64Mask(out []int64, ks []float64, mask []bool, extend bool) {
	applyMask(out, float64Keys(ks), mask, extend)
}

// ConstructFixed pre-hashes a packed column of width byte values.
func ConstructFixed(out []int64, data []byte, width int, extend bool) {
	apply(out, newFixedKeys(data, width), extend)
}

func ConstructFixedSels(out []int64, data []byte, width int, sels []int64, extend bool) {
	applySels(out, newFixedKeys(data, width), sels, extend)
}

func ConstructFixedMask(out []int64, data []byte, width int, mask []bool, extend bool) {
	applyMask(out, newFixedKeys(data, width), mask, extend)
}

func set(out []int64, i int, h int64, extend bool) {
	if extend {
		out[i] ^= h
	} else {
		out[i] = h
	}
}

func apply[H hashKeys](out []int64, ks H, extend bool) {
	n := ks.len()
	checkOut(n, len(out))
	start := 0
	if simd.Enabled {
		var lane [simd.Lanes]int64
		steps := simd.Steps(n)
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			for l := range lane {
				lane[l] = ks.hash(base + l)
			}
			for l, h := range lane {
				set(out, base+l, h, extend)
			}
		}
		start = steps * simd.Lanes
	}
	for i := start; i < n; i++ {
		set(out, i, ks.hash(i), extend)
	}
}

func applySels[H hashKeys](out []int64, ks H, sels []int64, extend bool) {
	checkOut(ks.len(), len(out))
	for _, sel := range sels {
		set(out, int(sel), ks.hash(int(sel)), extend)
	}
}

func applyMask[H hashKeys](out []int64, ks H, mask []bool, extend bool) {
	n := ks.len()
	checkOut(n, len(out))
	checkOut(n, len(mask))
	for i := 0; i < n; i++ {
		if mask[i] {
			set(out, i, ks.hash(i), extend)
		}
	}
}
