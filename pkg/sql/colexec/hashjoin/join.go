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


package hashjoin

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

// Probe looks up keys[row] for every row of sels (every row when sels is
// nil) and calls emit once per matching build record. A call emits at
// most one vector of output. When the records of the next key do not fit
// in what is left, the call stops before that key and returns done as
// false; probing again with the same arguments and state continues where
// it stopped. Keys owning more records than a whole vector are split
// across calls.
func Probe[K types.Int, V any](
	m *hashmap.JoinMap[K, V],
	keys []K,
	preHash []int64,
	sels []int64,
	state *ProbeState,
	emit func(row int64, v V),
) (rows int, done bool) {
	n := len(keys)
	if sels != nil {
		n = len(sels)
	}
	for state.Pos < n {
		row := int64(state.Pos)
		if sels != nil {
			row = sels[state.Pos]
		}
		idx := m.GetIndex(keys[row], preHash[row])
		if idx < 0 {
			state.Pos++
			continue
		}
		recs := m.Records(idx)[state.Offset:]
		space := types.VectorLength - rows
		if len(recs) > space {
			if rows > 0 && len(recs) <= types.VectorLength {
				return rows, false
			}
			for _, v := range recs[:space] {
				emit(row, v)
			}
			state.Offset += space
			return rows + space, false
		}
		for _, v := range recs {
			emit(row, v)
		}
		rows += len(recs)
		state.Offset = 0
		state.Pos++
	}
	return rows, true
}

// Build drains r into a join map keyed by column keyCol. value derives
// the record stored for a row of the current batch. Rows with a null key
// are skipped. Maintenance of pool is left to the caller.
func Build[K types.Int, V any](
	ctx context.Context,
	r objectio.TableReader,
	keyCol int,
	capacity int,
	pool mpool.AllocationManager,
	value func(bat *batch.Batch, row int64) V,
) (*hashmap.JoinMap[K, V], error) {
	m, err := hashmap.NewJoinMap[K, V](capacity)
	if err != nil {
		return nil, err
	}
	preHash := pool.GetLongVector()
	sel := pool.GetLongVector()
	defer pool.ReleaseLongVector(preHash)
	defer pool.ReleaseLongVector(sel)
	for {
		ok, err := r.LoadNextBatch(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err = buildBatch(ctx, m, r, keyCol, preHash, sel, value); err != nil {
			return nil, err
		}
	}
	logutil.Debug("join map built", zap.Int("keys", m.Len()))
	return m, nil
}

func buildBatch[K types.Int, V any](
	ctx context.Context,
	m *hashmap.JoinMap[K, V],
	r objectio.TableReader,
	keyCol int,
	preHash, sel []int64,
	value func(bat *batch.Batch, row int64) V,
) error {
	vec := r.GetVector(keyCol)
	if vec == nil {
		return moerr.NewInvalidArg(ctx, "join key column", keyCol)
	}
	keys, err := Keys[K](ctx, vec)
	if err != nil {
		return err
	}
	prehash.Construct(preHash, keys, false, nil)
	rows := sels.DropNulls(vec.GetNulls(), sels.Seq(len(keys), sel), sel)
	bat := r.Batch()
	for _, row := range rows {
		if err = m.Associate(keys[row], preHash[row], value(bat, row)); err != nil {
			return err
		}
	}
	return nil
}
