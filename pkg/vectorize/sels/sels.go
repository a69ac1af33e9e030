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

// Package sels converts between the two row selection forms of a batch:
// a selection vector of ascending row indices and a validity mask of
// batch capacity length.
package sels

import (
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/nulls"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

func checkOutput(name string, have, want int) {
	if have < want {
		panic(moerr.NewInvalidArgNoCtx(name, have))
	}
}

// Seq writes the identity selection [0, n) into rs.
func Seq(n int, rs []int64) []int64 {
	checkOutput("selection output length", len(rs), n)
	for i := 0; i < n; i++ {
		rs[i] = int64(i)
	}
	return rs[:n]
}

// FromMask compacts the first n slots of mask into a selection vector.
func FromMask(mask []bool, n int, rs []int64) []int64 {
	checkOutput("mask length", len(mask), n)
	checkOutput("selection output length", len(rs), n)
	rsi := 0
	for i, ok := range mask[:n] {
		if ok {
			rs[rsi] = int64(i)
			rsi++
		}
	}
	return rs[:rsi]
}

// ToMask sets the slots of sels in mask and clears the rest of the
// first n slots.
func ToMask(sels []int64, n int, mask []bool) {
	checkOutput("mask length", len(mask), n)
	for i := range mask[:n] {
		mask[i] = false
	}
	for _, sel := range sels {
		if sel < 0 || sel >= int64(n) {
			panic(moerr.NewInvalidArgNoCtx("selection index", sel))
		}
		mask[sel] = true
	}
}

// AndMask keeps the entries of sels whose mask slot is set. rs may
// alias sels.
func AndMask(sels []int64, mask []bool, rs []int64) []int64 {
	checkOutput("selection output length", len(rs), len(sels))
	rsi := 0
	for _, sel := range sels {
		if sel < 0 || sel >= int64(len(mask)) {
			panic(moerr.NewInvalidArgNoCtx("selection index", sel))
		}
		if mask[sel] {
			rs[rsi] = sel
			rsi++
		}
	}
	return rs[:rsi]
}

// Count returns the number of set slots among the first n of mask.
func Count(mask []bool, n int) int {
	checkOutput("mask length", len(mask), n)
	if simd.Enabled {
		return countSIMD(mask[:n])
	}
	return countPure(mask[:n])
}

func countPure(mask []bool) int {
	cnt := 0
	for _, ok := range mask {
		if ok {
			cnt++
		}
	}
	return cnt
}

func countSIMD(mask []bool) int {
	var lanes [simd.Lanes]int
	steps := simd.Steps(len(mask))
	for s := 0; s < steps; s++ {
		chunk := mask[s*simd.Lanes : (s+1)*simd.Lanes]
		for l := range lanes {
			if chunk[l] {
				lanes[l]++
			}
		}
	}
	cnt := countPure(mask[steps*simd.Lanes:])
	for _, c := range lanes {
		cnt += c
	}
	return cnt
}

// DropNulls removes the null rows of nsp from sels. rs may alias sels.
func DropNulls(nsp *nulls.Nulls, sels []int64, rs []int64) []int64 {
	checkOutput("selection output length", len(rs), len(sels))
	if !nulls.Any(nsp) {
		return rs[:copy(rs, sels)]
	}
	rsi := 0
	for _, sel := range sels {
		if !nulls.Contains(nsp, uint64(sel)) {
			rs[rsi] = sel
			rsi++
		}
	}
	return rs[:rsi]
}

// DropNullsMask clears the mask slots of null rows among the first n and
// returns the number of slots left set.
func DropNullsMask(nsp *nulls.Nulls, mask []bool, n int) int {
	checkOutput("mask length", len(mask), n)
	if nulls.Any(nsp) {
		for i := range mask[:n] {
			if mask[i] && nulls.Contains(nsp, uint64(i)) {
				mask[i] = false
			}
		}
	}
	return Count(mask, n)
}
