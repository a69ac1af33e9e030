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

package vector

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/nulls"
	"github.com/matrixorigin/batchcore/pkg/container/types"
)

// Vector represent a column
type Vector struct {
	// type represent the type of column
	typ types.Type
	nsp *nulls.Nulls // nulls list

	// col is the typed view of the values: []int32, []int64, []float64
	// or the packed []byte of a fixed width column. Varchar columns keep
	// col nil and are read through arr.
	col any

	// arr is retained while the vector views its buffers.
	arr arrow.Array

	length int
}

// NewFromArrow wraps an arrow array without copying. The vector holds a
// reference on arr until Free.
func NewFromArrow(ctx context.Context, arr arrow.Array) (*Vector, error) {
	typ, err := types.FromArrow(ctx, arr.DataType())
	if err != nil {
		return nil, err
	}
	if arr.Len() > types.VectorLength {
		return nil, moerr.NewInvalidInput(ctx, "column of %d rows exceeds vector length %d", arr.Len(), types.VectorLength)
	}
	v := &Vector{
		typ:    typ,
		nsp:    nulls.FromArrow(arr),
		length: arr.Len(),
	}
	switch typ.Oid {
	case types.T_int32:
		v.col = arr.(*array.Int32).Int32Values()
	case types.T_int64:
		v.col = arr.(*array.Int64).Int64Values()
	case types.T_float64:
		v.col = arr.(*array.Float64).Float64Values()
	case types.T_date32:
		v.col = types.DecodeSlice[int32](types.EncodeSlice(arr.(*array.Date32).Date32Values()))
	case types.T_fixed_bytes:
		v.col = fixedValues(arr.Data(), int(typ.Width))
	case types.T_varchar:
	}
	arr.Retain()
	v.arr = arr
	return v, nil
}

// fixedValues slices the packed values of a fixed size binary array,
// honouring the offset of a sliced array.
func fixedValues(d arrow.ArrayData, width int) []byte {
	if d.Len() == 0 || len(d.Buffers()) < 2 || d.Buffers()[1] == nil {
		return []byte{}
	}
	return d.Buffers()[1].Bytes()[d.Offset()*width : (d.Offset()+d.Len())*width]
}

// NewFromSlice wraps a Go slice as a scratch vector.
func NewFromSlice[T int32 | int64 | float64](typ types.Type, vs []T) *Vector {
	return &Vector{
		typ:    typ,
		col:    vs,
		length: len(vs),
	}
}

// NewFixedBytes wraps packed fixed width values.
func NewFixedBytes(width int, data []byte) *Vector {
	if width <= 0 || len(data)%width != 0 {
		panic(moerr.NewInvalidArgNoCtx("fixed bytes width", width))
	}
	return &Vector{
		typ:    types.New(types.T_fixed_bytes, int32(width)),
		col:    data,
		length: len(data) / width,
	}
}

// MustFixedCol returns the typed values of a numeric or date vector.
// It panics if T does not match the physical layout of the column.
func MustFixedCol[T int32 | int64 | float64](v *Vector) []T {
	col, ok := v.col.([]T)
	if !ok {
		panic(moerr.NewInternalErrorNoCtx("vector of type %s is not a %T column", v.typ, col))
	}
	return col
}

// MustFixedBytes returns the packed values and the width of a fixed
// bytes vector.
func MustFixedBytes(v *Vector) ([]byte, int) {
	if v.typ.Oid != types.T_fixed_bytes {
		panic(moerr.NewInternalErrorNoCtx("vector of type %s is not a fixed bytes column", v.typ))
	}
	return v.col.([]byte), int(v.typ.Width)
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) IsNull(i uint64) bool {
	return nulls.Contains(v.nsp, i)
}

// GetBytes returns the raw bytes of row i of a fixed bytes or varchar
// vector. Varchar values of string columns are copied.
func (v *Vector) GetBytes(i int) []byte {
	switch v.typ.Oid {
	case types.T_fixed_bytes:
		w := int(v.typ.Width)
		return v.col.([]byte)[i*w : (i+1)*w]
	case types.T_varchar:
		switch arr := v.arr.(type) {
		case *array.String:
			return []byte(arr.Value(i))
		case *array.Binary:
			return arr.Value(i)
		}
	}
	panic(moerr.NewInternalErrorNoCtx("GetBytes on %s vector", v.typ))
}

func (v *Vector) GetString(i int) string {
	if arr, ok := v.arr.(*array.String); ok {
		return arr.Value(i)
	}
	return string(v.GetBytes(i))
}

// Free drops the reference on the backing arrow array. Scratch vectors
// only forget their slice.
func (v *Vector) Free() {
	if v.arr != nil {
		v.arr.Release()
		v.arr = nil
	}
	v.col = nil
	v.nsp = nil
	v.length = 0
}

func (v *Vector) String() string {
	var buf bytes.Buffer

	buf.WriteString(v.typ.String())
	buf.WriteString("[")
	for i := 0; i < v.length; i++ {
		if i > 0 {
			buf.WriteString(" ")
		}
		if v.IsNull(uint64(i)) {
			buf.WriteString("null")
			continue
		}
		switch col := v.col.(type) {
		case []int32:
			fmt.Fprintf(&buf, "%d", col[i])
		case []int64:
			fmt.Fprintf(&buf, "%d", col[i])
		case []float64:
			fmt.Fprintf(&buf, "%v", col[i])
		default:
			fmt.Fprintf(&buf, "%q", v.GetBytes(i))
		}
	}
	buf.WriteString("]")
	return buf.String()
}
