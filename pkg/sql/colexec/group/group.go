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


package group

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/hashmap"
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/common/mpool"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/logutil"
	"github.com/matrixorigin/batchcore/pkg/objectio"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
	"github.com/matrixorigin/batchcore/pkg/vectorize/sels"
)

// DrainState is the insertion index of the next entry to emit.
type DrainState struct {
	Pos int
}

// Drain emits the entries of m in insertion order, at most one vector of
// them per call, and reports whether every entry has been emitted.
func Drain[K hashmap.Key, V any](
	m *hashmap.AggregationMap[K, V],
	state *DrainState,
	emit func(key K, v V),
) (rows int, done bool) {
	end := state.Pos + types.VectorLength
	if end > m.Len() {
		end = m.Len()
	}
	for i := state.Pos; i < end; i++ {
		emit(m.KeyAt(i), m.ValueAt(i))
	}
	rows = end - state.Pos
	state.Pos = end
	return rows, end == m.Len()
}

// RowFunc derives the key and the accumulator delta of one row of the
// current batch.
type RowFunc[K hashmap.Key, V any] func(bat *batch.Batch, row int64) (K, V)

// Fold drains r into m. keyCols are the columns the key of a row is made
// of; they are pre-hashed column at a time and rows with a null in any of
// them are skipped. m may be a map handed out by pool: Fold never runs
// pool maintenance.
func Fold[K hashmap.Key, V any](
	ctx context.Context,
	r objectio.TableReader,
	keyCols []int,
	m *hashmap.AggregationMap[K, V],
	pool mpool.AllocationManager,
	row RowFunc[K, V],
) error {
	if len(keyCols) == 0 {
		return moerr.NewInvalidArg(ctx, "group key columns", 0)
	}
	sc := newFoldScratch(pool)
	defer sc.release(pool)
	batches := 0
	for {
		ok, err := r.LoadNextBatch(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err = foldBatch(ctx, r, keyCols, m, sc, row); err != nil {
			return err
		}
		batches++
	}
	logutil.Debug("aggregation folded",
		zap.Int("batches", batches),
		zap.Int("groups", m.Len()))
	return nil
}

func foldBatch[K hashmap.Key, V any](
	ctx context.Context,
	r objectio.TableReader,
	keyCols []int,
	m *hashmap.AggregationMap[K, V],
	sc *foldScratch,
	row RowFunc[K, V],
) error {
	bat := r.Batch()
	n := bat.RowCount()

	rows := sels.Seq(n, sc.sel)
	for i, col := range keyCols {
		vec := r.GetVector(col)
		if vec == nil {
			return moerr.NewInvalidArg(ctx, "group key column", col)
		}
		if err := prehash.ConstructVec(ctx, sc.preHash, vec, i > 0, sc.lanes); err != nil {
			return err
		}
		rows = sels.DropNulls(vec.GetNulls(), rows, rows)
	}
	for _, i := range rows {
		k, v := row(bat, i)
		if err := m.IncrementForKey(k, sc.preHash[i], v); err != nil {
			return err
		}
	}
	return nil
}

// foldScratch holds the vectors one fold reuses for every batch.
type foldScratch struct {
	preHash []int64
	lanes   []int64
	sel     []int64
}

func newFoldScratch(pool mpool.AllocationManager) *foldScratch {
	return &foldScratch{
		preHash: pool.GetLongVector(),
		lanes:   pool.GetLongVector(),
		sel:     pool.GetLongVector(),
	}
}

func (sc *foldScratch) release(pool mpool.AllocationManager) {
	pool.ReleaseLongVector(sc.preHash)
	pool.ReleaseLongVector(sc.lanes)
	pool.ReleaseLongVector(sc.sel)
}
