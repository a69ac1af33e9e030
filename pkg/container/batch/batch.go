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
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

// Batch is a set of parallel column vectors with a row count. Columns
// that were not projected are nil.
type Batch struct {
	Attrs []string
	Vecs  []*vector.Vector

	rowCount int

	// record owns the arrow buffers the vectors view, nil for scratch
	// batches.
	record arrow.Record
	clean  bool
}

func New(attrs []string) *Batch {
	return &Batch{
		Attrs: attrs,
		Vecs:  make([]*vector.Vector, len(attrs)),
	}
}

func NewWithSize(n int) *Batch {
	return &Batch{
		Vecs: make([]*vector.Vector, n),
	}
}

// NewFromRecord builds a batch viewing the columns of rec. An empty
// projection materializes every column. The batch holds a reference on
// rec until Clean.
func NewFromRecord(ctx context.Context, rec arrow.Record, projection []int) (*Batch, error) {
	ncols := int(rec.NumCols())
	if rec.NumRows() > types.VectorLength {
		return nil, moerr.NewInvalidInput(ctx, "record batch of %d rows exceeds vector length %d", rec.NumRows(), types.VectorLength)
	}
	if len(projection) == 0 {
		projection = make([]int, ncols)
		for i := range projection {
			projection[i] = i
		}
	}

	bat := NewWithSize(ncols)
	bat.Attrs = make([]string, ncols)
	for i := 0; i < ncols; i++ {
		bat.Attrs[i] = rec.ColumnName(i)
	}
	for _, col := range projection {
		if col < 0 || col >= ncols {
			bat.Clean()
			return nil, moerr.NewInvalidArg(ctx, "projected column", col)
		}
		vec, err := vector.NewFromArrow(ctx, rec.Column(col))
		if err != nil {
			bat.Clean()
			return nil, err
		}
		bat.Vecs[col] = vec
	}
	rec.Retain()
	bat.record = rec
	bat.rowCount = int(rec.NumRows())
	return bat, nil
}

func (bat *Batch) RowCount() int {
	return bat.rowCount
}

func (bat *Batch) SetRowCount(rowCount int) {
	bat.rowCount = rowCount
}

func (bat *Batch) VectorCount() int {
	return len(bat.Vecs)
}

func (bat *Batch) SetVector(pos int32, vec *vector.Vector) {
	bat.Vecs[pos] = vec
}

func (bat *Batch) GetVector(pos int32) *vector.Vector {
	return bat.Vecs[pos]
}

// Clean releases the vectors and the arrow record. A batch can be cleaned
// more than once.
func (bat *Batch) Clean() {
	if bat == nil || bat.clean {
		return
	}
	bat.clean = true
	for _, vec := range bat.Vecs {
		if vec != nil {
			vec.Free()
		}
	}
	if bat.record != nil {
		bat.record.Release()
		bat.record = nil
	}
	bat.Vecs = nil
	bat.rowCount = 0
}

func (bat *Batch) IsEmpty() bool {
	return bat.rowCount == 0
}

func (bat *Batch) String() string {
	var buf bytes.Buffer

	for i, vec := range bat.Vecs {
		if vec == nil {
			continue
		}
		buf.WriteString(fmt.Sprintf("%d : %s\n", i, vec.String()))
	}
	return buf.String()
}

func (bat *Batch) Log(tag string) {
	if bat == nil || bat.rowCount < 1 {
		return
	}
	logutil.Debugf("\n" + tag + "\n" + bat.String())
}
