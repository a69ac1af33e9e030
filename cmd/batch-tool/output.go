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


package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/btree"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

const resultDegree = 32

// resultRow is one printed line. Rows order by the numeric key first and
// then by the byte key.
type resultRow struct {
	num  float64
	str  string
	cols []string
}

func (r *resultRow) Less(than btree.Item) bool {
	o := than.(*resultRow)
	if r.num != o.num {
		return r.num < o.num
	}
	return r.str < o.str
}

// result collects rows in key order.
type result struct {
	header []string
	tree   *btree.BTree
}

func newResult(header ...string) *result {
	return &result{
		header: header,
		tree:   btree.New(resultDegree),
	}
}

func (r *result) add(num float64, str string, cols ...string) {
	r.tree.ReplaceOrInsert(&resultRow{num: num, str: str, cols: cols})
}

func (r *result) len() int {
	return r.tree.Len()
}

// print writes the header and at most limit rows, all rows when limit is
// not positive.
func (r *result) print(w io.Writer, limit int) {
	fmt.Fprintln(w, strings.Join(r.header, "\t"))
	n := 0
	r.tree.Ascend(func(item btree.Item) bool {
		if limit > 0 && n == limit {
			return false
		}
		fmt.Fprintln(w, strings.Join(item.(*resultRow).cols, "\t"))
		n++
		return true
	})
	if limit > 0 && r.len() > limit {
		fmt.Fprintf(w, "... %d more\n", r.len()-limit)
	}
}

// floats returns a numeric column as doubles, converting into buf when
// the column is not a DOUBLE.
func floats(ctx context.Context, vec *vector.Vector, buf []float64) ([]float64, error) {
	switch vec.GetType().Oid {
	case types.T_float64:
		return vector.MustFixedCol[float64](vec), nil
	case types.T_int32, types.T_date32:
		col := vector.MustFixedCol[int32](vec)
		for i, v := range col {
			buf[i] = float64(v)
		}
		return buf[:len(col)], nil
	case types.T_int64:
		col := vector.MustFixedCol[int64](vec)
		for i, v := range col {
			buf[i] = float64(v)
		}
		return buf[:len(col)], nil
	}
	return nil, moerr.NewNotSupported(ctx, "numeric value of %s", vec.GetType())
}

func column(ctx context.Context, vec *vector.Vector, col int) (*vector.Vector, error) {
	if vec == nil {
		return nil, moerr.NewInvalidArg(ctx, "column", col)
	}
	return vec, nil
}
