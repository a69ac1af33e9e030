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

package batch

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

func newRecord(mem memory.Allocator) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "k", Type: arrow.PrimitiveTypes.Int32},
		{Name: "v", Type: arrow.PrimitiveTypes.Float64},
		{Name: "s", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2, 3}, nil)
	b.Field(1).(*array.Float64Builder).AppendValues([]float64{0.5, 1.5, 2.5}, nil)
	b.Field(2).(*array.StringBuilder).AppendValues([]string{"a", "b", "c"}, nil)
	return b.NewRecord()
}

func TestNewFromRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := newRecord(mem)
	bat, err := NewFromRecord(context.Background(), rec, nil)
	require.NoError(t, err)
	rec.Release()

	require.Equal(t, 3, bat.RowCount())
	require.Equal(t, 3, bat.VectorCount())
	require.Equal(t, []string{"k", "v", "s"}, bat.Attrs)
	require.Equal(t, []int32{1, 2, 3}, vector.MustFixedCol[int32](bat.GetVector(0)))
	require.Equal(t, "c", bat.GetVector(2).GetString(2))

	bat.Clean()
	bat.Clean()
	require.True(t, bat.IsEmpty())
}

func TestNewFromRecordProjection(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := newRecord(mem)
	defer rec.Release()

	bat, err := NewFromRecord(context.Background(), rec, []int{1})
	require.NoError(t, err)
	require.Nil(t, bat.GetVector(0))
	require.Equal(t, []float64{0.5, 1.5, 2.5}, vector.MustFixedCol[float64](bat.GetVector(1)))
	require.Nil(t, bat.GetVector(2))
	bat.Clean()

	_, err = NewFromRecord(context.Background(), rec, []int{0, 3})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}
