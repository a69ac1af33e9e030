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

package filter

import (
	"context"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/vectorize/sels"
)

type Op uint8

const (
	OpLt Op = iota
	OpLe
	OpGt
	OpGe
	OpEq
)

func (op Op) String() string {
	switch op {
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpEq:
		return "="
	}
	return "unknown"
}

// Compare applies `v op c` to every row of v and returns the qualifying
// rows. Null rows never qualify. c must have the Go type of the column:
// int32 for INT and DATE, int64, float64, or []byte for CHAR where only
// equality is supported.
func Compare(ctx context.Context, op Op, v *vector.Vector, c any, rs []int64) ([]int64, error) {
	var res []int64

	switch typ := v.GetType(); typ.Oid {
	case types.T_int32, types.T_date32:
		x, ok := c.(int32)
		if !ok {
			return nil, moerr.NewInvalidArg(ctx, "constant of "+typ.String(), c)
		}
		res, ok = compareOrdered(op, vector.MustFixedCol[int32](v), x, rs)
		if !ok {
			return nil, moerr.NewNotSupported(ctx, "%s %s", typ, op)
		}
	case types.T_int64:
		x, ok := c.(int64)
		if !ok {
			return nil, moerr.NewInvalidArg(ctx, "constant of "+typ.String(), c)
		}
		res, ok = compareOrdered(op, vector.MustFixedCol[int64](v), x, rs)
		if !ok {
			return nil, moerr.NewNotSupported(ctx, "%s %s", typ, op)
		}
	case types.T_float64:
		x, ok := c.(float64)
		if !ok {
			return nil, moerr.NewInvalidArg(ctx, "constant of "+typ.String(), c)
		}
		res, ok = compareOrdered(op, vector.MustFixedCol[float64](v), x, rs)
		if !ok {
			return nil, moerr.NewNotSupported(ctx, "%s %s", typ, op)
		}
	case types.T_fixed_bytes:
		x, ok := c.([]byte)
		if !ok || len(x) != int(typ.Width) {
			return nil, moerr.NewInvalidArg(ctx, "constant of "+typ.String(), c)
		}
		if op != OpEq {
			return nil, moerr.NewNotSupported(ctx, "%s %s", typ, op)
		}
		data, width := vector.MustFixedBytes(v)
		res = EqFixed(data, width, x, rs)
	default:
		return nil, moerr.NewNotSupported(ctx, "%s %s", typ, op)
	}
	return sels.DropNulls(v.GetNulls(), res, res), nil
}

func compareOrdered[T Ordered](op Op, ys []T, c T, rs []int64) ([]int64, bool) {
	switch op {
	case OpLt:
		return LtScalar(ys, c, rs), true
	case OpLe:
		return LeScalar(ys, c, rs), true
	case OpGt:
		return GtScalar(ys, c, rs), true
	case OpGe:
		return GeScalar(ys, c, rs), true
	}
	return nil, false
}
