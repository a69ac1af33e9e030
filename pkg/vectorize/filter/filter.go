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

// Package filter evaluates comparison predicates against a constant over
// a column and narrows the row selection. Every predicate comes in four
// forms: over all rows or an incoming selection vector, producing a
// selection vector, and over all rows or an incoming mask, producing a
// mask.
package filter

import (
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

// Ordered covers the column types with native comparison kernels.
type Ordered interface {
	~int32 | ~int64 | ~float64
}

type predicate[T any] interface {
	test(T) bool
}

type ltPred[T Ordered] struct{ c T }

func (p ltPred[T]) test(v T) bool { return v < p.c }

type lePred[T Ordered] struct{ c T }

func (p lePred[T]) test(v T) bool { return v <= p.c }

type gtPred[T Ordered] struct{ c T }

func (p gtPred[T]) test(v T) bool { return v > p.c }

type gePred[T Ordered] struct{ c T }

func (p gePred[T]) test(v T) bool { return v >= p.c }

// betweenGeLtPred is lo <= v < hi
type betweenGeLtPred[T Ordered] struct{ lo, hi T }

func (p betweenGeLtPred[T]) test(v T) bool { return v >= p.lo && v < p.hi }

// betweenGeLePred is lo <= v <= hi
type betweenGeLePred[T Ordered] struct{ lo, hi T }

func (p betweenGeLePred[T]) test(v T) bool { return v >= p.lo && v <= p.hi }

func LtScalar[T Ordered](ys []T, c T, rs []int64) []int64 {
	return selectAll(cmpRows[T, ltPred[T]]{ys, ltPred[T]{c}}, rs)
}

func LtScalarSels[T Ordered](ys []T, c T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, ltPred[T]]{ys, ltPred[T]{c}}, rs, sels)
}

func LtScalarMask[T Ordered](ys []T, c T, mask []bool) int {
	return selectMask(cmpRows[T, ltPred[T]]{ys, ltPred[T]{c}}, mask)
}

func LtScalarMaskAnd[T Ordered](ys []T, c T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, ltPred[T]]{ys, ltPred[T]{c}}, mask)
}

func LeScalar[T Ordered](ys []T, c T, rs []int64) []int64 {
	return selectAll(cmpRows[T, lePred[T]]{ys, lePred[T]{c}}, rs)
}

func LeScalarSels[T Ordered](ys []T, c T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, lePred[T]]{ys, lePred[T]{c}}, rs, sels)
}

func LeScalarMask[T Ordered](ys []T, c T, mask []bool) int {
	return selectMask(cmpRows[T, lePred[T]]{ys, lePred[T]{c}}, mask)
}

func LeScalarMaskAnd[T Ordered](ys []T, c T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, lePred[T]]{ys, lePred[T]{c}}, mask)
}

func GtScalar[T Ordered](ys []T, c T, rs []int64) []int64 {
	return selectAll(cmpRows[T, gtPred[T]]{ys, gtPred[T]{c}}, rs)
}

func GtScalarSels[T Ordered](ys []T, c T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, gtPred[T]]{ys, gtPred[T]{c}}, rs, sels)
}

func GtScalarMask[T Ordered](ys []T, c T, mask []bool) int {
	return selectMask(cmpRows[T, gtPred[T]]{ys, gtPred[T]{c}}, mask)
}

func GtScalarMaskAnd[T Ordered](ys []T, c T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, gtPred[T]]{ys, gtPred[T]{c}}, mask)
}

func GeScalar[T Ordered](ys []T, c T, rs []int64) []int64 {
	return selectAll(cmpRows[T, gePred[T]]{ys, gePred[T]{c}}, rs)
}

func GeScalarSels[T Ordered](ys []T, c T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, gePred[T]]{ys, gePred[T]{c}}, rs, sels)
}

func GeScalarMask[T Ordered](ys []T, c T, mask []bool) int {
	return selectMask(cmpRows[T, gePred[T]]{ys, gePred[T]{c}}, mask)
}

func GeScalarMaskAnd[T Ordered](ys []T, c T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, gePred[T]]{ys, gePred[T]{c}}, mask)
}

func BetweenGeLtScalar[T Ordered](ys []T, lo, hi T, rs []int64) []int64 {
	return selectAll(cmpRows[T, betweenGeLtPred[T]]{ys, betweenGeLtPred[T]{lo, hi}}, rs)
}

func BetweenGeLtScalarSels[T Ordered](ys []T, lo, hi T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, betweenGeLtPred[T]]{ys, betweenGeLtPred[T]{lo, hi}}, rs, sels)
}

func BetweenGeLtScalarMask[T Ordered](ys []T, lo, hi T, mask []bool) int {
	return selectMask(cmpRows[T, betweenGeLtPred[T]]{ys, betweenGeLtPred[T]{lo, hi}}, mask)
}

func BetweenGeLtScalarMaskAnd[T Ordered](ys []T, lo, hi T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, betweenGeLtPred[T]]{ys, betweenGeLtPred[T]{lo, hi}}, mask)
}

func BetweenGeLeScalar[T Ordered](ys []T, lo, hi T, rs []int64) []int64 {
	return selectAll(cmpRows[T, betweenGeLePred[T]]{ys, betweenGeLePred[T]{lo, hi}}, rs)
}

func BetweenGeLeScalarSels[T Ordered](ys []T, lo, hi T, rs, sels []int64) []int64 {
	return selectSels(cmpRows[T, betweenGeLePred[T]]{ys, betweenGeLePred[T]{lo, hi}}, rs, sels)
}

func BetweenGeLeScalarMask[T Ordered](ys []T, lo, hi T, mask []bool) int {
	return selectMask(cmpRows[T, betweenGeLePred[T]]{ys, betweenGeLePred[T]{lo, hi}}, mask)
}

func BetweenGeLeScalarMaskAnd[T Ordered](ys []T, lo, hi T, mask []bool) int {
	return selectMaskAnd(cmpRows[T, betweenGeLePred[T]]{ys, betweenGeLePred[T]{lo, hi}}, mask)
}

func checkLength(name string, have, want int) {
	if have < want {
		panic(moerr.NewSizeNotMatchNoCtx(name))
	}
}

// rows evaluates a predicate by physical row index.
type rows interface {
	len() int
	row(i int) bool
}

type cmpRows[T Ordered, P predicate[T]] struct {
	ys []T
	p  P
}

func (r cmpRows[T, P]) len() int { return len(r.ys) }

func (r cmpRows[T, P]) row(i int) bool { return r.p.test(r.ys[i]) }

func selectAll[R rows](r R, rs []int64) []int64 {
	checkLength("filter output", len(rs), r.len())
	if simd.Enabled {
		return selectAllSIMD(r, rs)
	}
	return selectAllPure(r, rs)
}

func selectAllPure[R rows](r R, rs []int64) []int64 {
	rsi := 0
	for i, n := 0, r.len(); i < n; i++ {
		if r.row(i) {
			rs[rsi] = int64(i)
			rsi++
		}
	}
	return rs[:rsi]
}

func selectAllSIMD[R rows](r R, rs []int64) []int64 {
	var hit [simd.Lanes]bool

	n := r.len()
	rsi := 0
	steps := simd.Steps(n)
	for s := 0; s < steps; s++ {
		base := s * simd.Lanes
		for l := range hit {
			hit[l] = r.row(base + l)
		}
		for l, ok := range hit {
			if ok {
				rs[rsi] = int64(base + l)
				rsi++
			}
		}
	}
	for i := steps * simd.Lanes; i < n; i++ {
		if r.row(i) {
			rs[rsi] = int64(i)
			rsi++
		}
	}
	return rs[:rsi]
}

func selectSels[R rows](r R, rs, sels []int64) []int64 {
	checkLength("filter output", len(rs), len(sels))
	if simd.Enabled {
		return selectSelsSIMD(r, rs, sels)
	}
	return selectSelsPure(r, rs, sels)
}

func selectSelsPure[R rows](r R, rs, sels []int64) []int64 {
	rsi := 0
	for _, sel := range sels {
		if r.row(int(sel)) {
			rs[rsi] = sel
			rsi++
		}
	}
	return rs[:rsi]
}

func selectSelsSIMD[R rows](r R, rs, sels []int64) []int64 {
	var hit [simd.Lanes]bool

	rsi := 0
	steps := simd.Steps(len(sels))
	for s := 0; s < steps; s++ {
		lane := sels[s*simd.Lanes : (s+1)*simd.Lanes]
		for l := range hit {
			hit[l] = r.row(int(lane[l]))
		}
		for l, ok := range hit {
			if ok {
				rs[rsi] = lane[l]
				rsi++
			}
		}
	}
	for _, sel := range sels[steps*simd.Lanes:] {
		if r.row(int(sel)) {
			rs[rsi] = sel
			rsi++
		}
	}
	return rs[:rsi]
}

func selectMask[R rows](r R, mask []bool) int {
	n := r.len()
	checkLength("filter mask", len(mask), n)
	if simd.Enabled {
		steps := simd.Steps(n)
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			out := mask[base : base+simd.Lanes]
			for l := range out {
				out[l] = r.row(base + l)
			}
		}
		for i := steps * simd.Lanes; i < n; i++ {
			mask[i] = r.row(i)
		}
		return n
	}
	for i := 0; i < n; i++ {
		mask[i] = r.row(i)
	}
	return n
}

func selectMaskAnd[R rows](r R, mask []bool) int {
	n := r.len()
	checkLength("filter mask", len(mask), n)
	if simd.Enabled {
		steps := simd.Steps(n)
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			out := mask[base : base+simd.Lanes]
			for l := range out {
				out[l] = out[l] && r.row(base+l)
			}
		}
		for i := steps * simd.Lanes; i < n; i++ {
			mask[i] = mask[i] && r.row(i)
		}
		return n
	}
	for i := 0; i < n; i++ {
		mask[i] = mask[i] && r.row(i)
	}
	return n
}
