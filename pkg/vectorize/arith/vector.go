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
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

type Numeric interface {
	int32 | int64 | float64
}

func AddVec[T Numeric](xs, ys *vector.Vector, rs []T) []T {
	return Add(vector.MustFixedCol[T](xs), vector.MustFixedCol[T](ys), rs)
}

func SubVec[T Numeric](xs, ys *vector.Vector, rs []T) []T {
	return Sub(vector.MustFixedCol[T](xs), vector.MustFixedCol[T](ys), rs)
}

func MulVec[T Numeric](xs, ys *vector.Vector, rs []T) []T {
	return Mul(vector.MustFixedCol[T](xs), vector.MustFixedCol[T](ys), rs)
}

func MulVecSels[T Numeric](xs, ys *vector.Vector, rs []T, sels []int64) []T {
	return MulSels(vector.MustFixedCol[T](xs), vector.MustFixedCol[T](ys), rs, sels)
}

// DivVec divides a DOUBLE column by an INT, BIGINT or DOUBLE column.
func DivVec(xs, ys *vector.Vector, rs []float64) []float64 {
	x := vector.MustFixedCol[float64](xs)
	switch ys.GetType().Oid {
	case types.T_int32:
		return Div(x, vector.MustFixedCol[int32](ys), rs)
	case types.T_int64:
		return Div(x, vector.MustFixedCol[int64](ys), rs)
	case types.T_float64:
		return Div(x, vector.MustFixedCol[float64](ys), rs)
	}
	panic(moerr.NewInternalErrorNoCtx("divide by %s column", ys.GetType()))
}
