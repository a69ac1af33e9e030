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

package arith

import (
	"math"
	"math/rand"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

func withSIMD(enabled bool, fn func()) {
	stubs := gostub.Stub(&simd.Enabled, enabled)
	defer stubs.Reset()
	fn()
}

func TestBinary(t *testing.T) {
	xs := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	ys := []int64{9, 8, 7, 6, 5, 4, 3, 2, 1}
	for _, enabled := range []bool{false, true} {
		withSIMD(enabled, func() {
			rs := make([]int64, len(xs))
			require.Equal(t, []int64{10, 10, 10, 10, 10, 10, 10, 10, 10}, Add(xs, ys, rs))
			require.Equal(t, []int64{-8, -6, -4, -2, 0, 2, 4, 6, 8}, Sub(xs, ys, rs))
			require.Equal(t, []int64{9, 16, 21, 24, 25, 24, 21, 16, 9}, Mul(xs, ys, rs))
			require.Equal(t, []int64{11, 12, 13, 14, 15, 16, 17, 18, 19}, AddScalar(10, xs, rs))
			require.Equal(t, []int64{9, 8, 7, 6, 5, 4, 3, 2, 1}, SubScalar(10, xs, rs))
			require.Equal(t, []int64{2, 4, 6, 8, 10, 12, 14, 16, 18}, MulScalar(2, xs, rs))
		})
	}
}

func TestSelsLeavesOthersUntouched(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	ys := []float64{10, 20, 30, 40}
	sels := []int64{1, 3}
	for _, enabled := range []bool{false, true} {
		withSIMD(enabled, func() {
			rs := []float64{-1, -1, -1, -1}
			rs = MulSels(xs, ys, rs, sels)
			require.Equal(t, []float64{-1, 40, -1, 160}, rs)

			rs = []float64{-1, -1, -1, -1}
			rs = AddScalarSels(1, xs, rs, sels)
			require.Equal(t, []float64{-1, 3, -1, 5}, rs)

			rs = []float64{-1, -1, -1, -1}
			rs = SubSels(ys, xs, rs, sels)
			require.Equal(t, []float64{-1, 18, -1, 36}, rs)

			rs = []float64{-1, -1, -1, -1}
			rs = DivSels(ys, []int32{1, 4, 1, 8}, rs, sels)
			require.Equal(t, []float64{-1, 5, -1, 5}, rs)
		})
	}
}

func TestDiv(t *testing.T) {
	xs := []float64{1, -1, 0, 9}
	ys := []int32{0, 0, 0, 2}
	for _, enabled := range []bool{false, true} {
		withSIMD(enabled, func() {
			rs := Div(xs, ys, make([]float64, len(xs)))
			require.True(t, math.IsInf(rs[0], 1))
			require.True(t, math.IsInf(rs[1], -1))
			require.True(t, math.IsNaN(rs[2]))
			require.Equal(t, 4.5, rs[3])
		})
	}
}

func TestScalarSIMDEquivalence(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, n := range []int{0, 3, 8, 13, 1000, types.VectorLength} {
		xs := make([]float64, n)
		ys := make([]int64, n)
		zs := make([]float64, n)
		for i := range xs {
			xs[i] = r.NormFloat64() * 1e6
			ys[i] = r.Int63n(1<<20) - 1<<19
			zs[i] = r.NormFloat64()
		}
		run := func() [][]float64 {
			return [][]float64{
				append([]float64(nil), Mul(xs, zs, make([]float64, n))...),
				append([]float64(nil), Add(xs, zs, make([]float64, n))...),
				append([]float64(nil), SubScalar(0.25, zs, make([]float64, n))...),
				append([]float64(nil), Div(xs, ys, make([]float64, n))...),
			}
		}
		var pure, lanes [][]float64
		withSIMD(false, func() { pure = run() })
		withSIMD(true, func() { lanes = run() })
		for i := range pure {
			for j := range pure[i] {
				require.Equal(t, math.Float64bits(pure[i][j]), math.Float64bits(lanes[i][j]))
			}
		}
	}
}

func TestLengthMismatch(t *testing.T) {
	require.Panics(t, func() { Add([]int32{1, 2}, []int32{1}, make([]int32, 2)) })
	require.Panics(t, func() { Mul([]int32{1, 2}, []int32{1, 2}, make([]int32, 1)) })
	require.Panics(t, func() { Div([]float64{1, 2}, []int32{1}, make([]float64, 2)) })
}

func TestVectorWrappers(t *testing.T) {
	xs := vector.NewFromSlice(types.New(types.T_float64, 0), []float64{2, 4})
	ys := vector.NewFromSlice(types.New(types.T_float64, 0), []float64{3, 5})
	is := vector.NewFromSlice(types.New(types.T_int32, 0), []int32{2, 8})

	require.Equal(t, []float64{6, 20}, MulVec(xs, ys, make([]float64, 2)))
	require.Equal(t, []float64{5, 9}, AddVec(xs, ys, make([]float64, 2)))
	require.Equal(t, []float64{-1, -1}, SubVec(xs, ys, make([]float64, 2)))
	require.Equal(t, []float64{1, 0.5}, DivVec(xs, is, make([]float64, 2)))
	require.Equal(t, []float64{0, 20}, MulVecSels(xs, ys, make([]float64, 2), []int64{1}))
	require.Panics(t, func() { MulVec(xs, is, make([]float64, 2)) })
}
