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

// Package arith implements elementwise arithmetic over columns. Results
// always span the full operand length; the Sels forms only write the
// selected positions and leave the others untouched.
package arith

import (
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

type Float interface {
	~float32 | ~float64
}

type operator[T any] interface {
	apply(a, b T) T
}

type addOp[T types.Number] struct{}

func (addOp[T]) apply(a, b T) T { return a + b }

type subOp[T types.Number] struct{}

func (subOp[T]) apply(a, b T) T { return a - b }

type mulOp[T types.Number] struct{}

func (mulOp[T]) apply(a, b T) T { return a * b }

func Add[T types.Number](xs, ys, rs []T) []T {
	return binary[T](addOp[T]{}, xs, ys, rs)
}

func AddSels[T types.Number](xs, ys, rs []T, sels []int64) []T {
	return binarySels[T](addOp[T]{}, xs, ys, rs, sels)
}

func AddScalar[T types.Number](x T, ys, rs []T) []T {
	return scalar[T](addOp[T]{}, x, ys, rs)
}

func AddScalarSels[T types.Number](x T, ys, rs []T, sels []int64) []T {
	return scalarSels[T](addOp[T]{}, x, ys, rs, sels)
}

func Sub[T types.Number](xs, ys, rs []T) []T {
	return binary[T](subOp[T]{}, xs, ys, rs)
}

func SubSels[T types.Number](xs, ys, rs []T, sels []int64) []T {
	return binarySels[T](subOp[T]{}, xs, ys, rs, sels)
}

// SubScalar computes x - ys[i].
func SubScalar[T types.Number](x T, ys, rs []T) []T {
	return scalar[T](subOp[T]{}, x, ys, rs)
}

func SubScalarSels[T types.Number](x T, ys, rs []T, sels []int64) []T {
	return scalarSels[T](subOp[T]{}, x, ys, rs, sels)
}

func Mul[T types.Number](xs, ys, rs []T) []T {
	return binary[T](mulOp[T]{}, xs, ys, rs)
}

func MulSels[T types.Number](xs, ys, rs []T, sels []int64) []T {
	return binarySels[T](mulOp[T]{}, xs, ys, rs, sels)
}

func MulScalar[T types.Number](x T, ys, rs []T) []T {
	return scalar[T](mulOp[T]{}, x, ys, rs)
}

func MulScalarSels[T types.Number](x T, ys, rs []T, sels []int64) []T {
	return scalarSels[T](mulOp[T]{}, x, ys, rs, sels)
}

// Div divides a float column by a numeric column. Division by zero
// follows IEEE 754 and yields an infinity or NaN.
func Div[T Float, U types.Number](xs []T, ys []U, rs []T) []T {
	checkBinary(len(xs), len(ys), len(rs))
	if simd.Enabled {
		steps := simd.Steps(len(xs))
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			x, y, r := xs[base:base+simd.Lanes], ys[base:base+simd.Lanes], rs[base:base+simd.Lanes]
			for l := range r {
				r[l] = x[l] / T(y[l])
			}
		}
		for i := steps * simd.Lanes; i < len(xs); i++ {
			rs[i] = xs[i] / T(ys[i])
		}
		return rs[:len(xs)]
	}
	for i, x := range xs {
		rs[i] = x / T(ys[i])
	}
	return rs[:len(xs)]
}

func DivSels[T Float, U types.Number](xs []T, ys []U, rs []T, sels []int64) []T {
	checkBinary(len(xs), len(ys), len(rs))
	for _, sel := range sels {
		rs[sel] = xs[sel] / T(ys[sel])
	}
	return rs[:len(xs)]
}

func checkBinary(nx, ny, nr int) {
	if nx != ny {
		panic(moerr.NewSizeNotMatchNoCtx("arithmetic operand"))
	}
	if nr < nx {
		panic(moerr.NewSizeNotMatchNoCtx("arithmetic result"))
	}
}

func binary[T any, O operator[T]](op O, xs, ys, rs []T) []T {
	checkBinary(len(xs), len(ys), len(rs))
	if simd.Enabled {
		steps := simd.Steps(len(xs))
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			x, y, r := xs[base:base+simd.Lanes], ys[base:base+simd.Lanes], rs[base:base+simd.Lanes]
			for l := range r {
				r[l] = op.apply(x[l], y[l])
			}
		}
		for i := steps * simd.Lanes; i < len(xs); i++ {
			rs[i] = op.apply(xs[i], ys[i])
		}
		return rs[:len(xs)]
	}
	for i, x := range xs {
		rs[i] = op.apply(x, ys[i])
	}
	return rs[:len(xs)]
}

func binarySels[T any, O operator[T]](op O, xs, ys, rs []T, sels []int64) []T {
	checkBinary(len(xs), len(ys), len(rs))
	if simd.Enabled {
		steps := simd.Steps(len(sels))
		for s := 0; s < steps; s++ {
			for _, sel := range sels[s*simd.Lanes : (s+1)*simd.Lanes] {
				rs[sel] = op.apply(xs[sel], ys[sel])
			}
		}
		for _, sel := range sels[steps*simd.Lanes:] {
			rs[sel] = op.apply(xs[sel], ys[sel])
		}
		return rs[:len(xs)]
	}
	for _, sel := range sels {
		rs[sel] = op.apply(xs[sel], ys[sel])
	}
	return rs[:len(xs)]
}

func scalar[T any, O operator[T]](op O, x T, ys, rs []T) []T {
	checkBinary(len(ys), len(ys), len(rs))
	if simd.Enabled {
		steps := simd.Steps(len(ys))
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			y, r := ys[base:base+simd.Lanes], rs[base:base+simd.Lanes]
			for l := range r {
				r[l] = op.apply(x, y[l])
			}
		}
		for i := steps * simd.Lanes; i < len(ys); i++ {
			rs[i] = op.apply(x, ys[i])
		}
		return rs[:len(ys)]
	}
	for i, y := range ys {
		rs[i] = op.apply(x, y)
	}
	return rs[:len(ys)]
}

func scalarSels[T any, O operator[T]](op O, x T, ys, rs []T, sels []int64) []T {
	checkBinary(len(ys), len(ys), len(rs))
	for _, sel := range sels {
		rs[sel] = op.apply(x, ys[sel])
	}
	return rs[:len(ys)]
}
