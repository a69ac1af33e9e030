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

package types

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
)

const (
	// VectorLength is the physical capacity of every column vector in a batch.
	VectorLength = 16384

	// SIMDLanes is the number of rows processed per step by the
	// lane-chunked kernels.
	SIMDLanes = 8
)

// T is the closed set of physical column types understood by the core.
type T uint8

const (
	T_any T = iota
	T_int32
	T_int64
	T_float64
	T_date32
	T_fixed_bytes
	T_varchar
)

type Type struct {
	Oid T
	// Width is the byte width of T_fixed_bytes, zero otherwise.
	Width int32
}

// Number covers the element types the numeric kernels are instantiated for.
type Number interface {
	constraints.Integer | constraints.Float
}

// Int covers the key types that can be pre-hashed with the universal
// integer hash.
type Int interface {
	~int32 | ~int64
}

func New(oid T, width int32) Type {
	return Type{Oid: oid, Width: width}
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t Type) IsFixedLen() bool {
	return t.Oid != T_varchar
}

// TypeSize is the byte size of one value, -1 for variable length types.
func (t Type) TypeSize() int {
	switch t.Oid {
	case T_int32, T_date32:
		return 4
	case T_int64, T_float64:
		return 8
	case T_fixed_bytes:
		return int(t.Width)
	case T_varchar:
		return -1
	}
	panic(moerr.NewInternalErrorNoCtx("unknown type %d", t.Oid))
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_float64:
		return "DOUBLE"
	case T_date32:
		return "DATE"
	case T_fixed_bytes:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}

// FromArrow maps an arrow data type onto the physical type enum. Any type
// outside the supported set is reported as not supported.
func FromArrow(ctx context.Context, dt arrow.DataType) (Type, error) {
	switch dt.ID() {
	case arrow.INT32:
		return New(T_int32, 0), nil
	case arrow.INT64:
		return New(T_int64, 0), nil
	case arrow.FLOAT64:
		return New(T_float64, 0), nil
	case arrow.DATE32:
		return New(T_date32, 0), nil
	case arrow.FIXED_SIZE_BINARY:
		return New(T_fixed_bytes, int32(dt.(*arrow.FixedSizeBinaryType).ByteWidth)), nil
	case arrow.STRING, arrow.BINARY:
		return New(T_varchar, 0), nil
	default:
		return Type{}, moerr.NewNotSupported(ctx, "column type %s", dt)
	}
}

// ToArrow is the inverse of FromArrow, used when output batches are written
// back to arrow files.
func (t Type) ToArrow() arrow.DataType {
	switch t.Oid {
	case T_int32:
		return arrow.PrimitiveTypes.Int32
	case T_int64:
		return arrow.PrimitiveTypes.Int64
	case T_float64:
		return arrow.PrimitiveTypes.Float64
	case T_date32:
		return arrow.FixedWidthTypes.Date32
	case T_fixed_bytes:
		return &arrow.FixedSizeBinaryType{ByteWidth: int(t.Width)}
	case T_varchar:
		return arrow.BinaryTypes.String
	}
	panic(moerr.NewInternalErrorNoCtx("unknown type %d", t.Oid))
}
