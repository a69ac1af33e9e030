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
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/common/hashmap"
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/common/mpool"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/nulls"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	mock_objectio "github.com/matrixorigin/batchcore/pkg/objectio/test"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
)

func newMap(t *testing.T, records map[int64]int) *hashmap.JoinMap[int64, int64] {
	m, err := hashmap.NewJoinMap[int64, int64](4)
	require.NoError(t, err)
	for k, n := range records {
		for i := 0; i < n; i++ {
			require.NoError(t, m.Associate(k, prehash.Long(k), k*100000+int64(i)))
		}
	}
	return m
}

func hashes(keys []int64) []int64 {
	out := make([]int64, len(keys))
	prehash.Construct(out, keys, false, nil)
	return out
}

func TestProbe(t *testing.T) {
	m := newMap(t, map[int64]int{1: 3, 2: 1})
	keys := []int64{1, 2, 3, 1, -1}

	var got [][2]int64
	emit := func(row int64, v int64) { got = append(got, [2]int64{row, v}) }

	var state ProbeState
	rows, done := Probe(m, keys, hashes(keys), nil, &state, emit)
	require.True(t, done)
	require.Equal(t, 7, rows)
	require.Equal(t, [][2]int64{
		{0, 100000}, {0, 100001}, {0, 100002},
		{1, 200000},
		{3, 100000}, {3, 100001}, {3, 100002},
	}, got)

	got = got[:0]
	state.Reset()
	rows, done = Probe(m, keys, hashes(keys), []int64{1, 2}, &state, emit)
	require.True(t, done)
	require.Equal(t, 1, rows)
	require.Equal(t, [][2]int64{{1, 200000}}, got)
}

func TestProbeStopsAtVectorLength(t *testing.T) {
	m := newMap(t, map[int64]int{1: 10000, 2: 10000})
	keys := []int64{1, 2}
	preHash := hashes(keys)

	var state ProbeState
	total := 0
	emit := func(row int64, v int64) { total++ }

	rows, done := Probe(m, keys, preHash, nil, &state, emit)
	require.False(t, done)
	require.Equal(t, 10000, rows)
	require.Equal(t, 1, state.Pos)

	rows, done = Probe(m, keys, preHash, nil, &state, emit)
	require.True(t, done)
	require.Equal(t, 10000, rows)
	require.Equal(t, 20000, total)
}

func TestProbeSplitsLargeKey(t *testing.T) {
	m := newMap(t, map[int64]int{1: 20000})
	keys := []int64{1}
	preHash := hashes(keys)

	var state ProbeState
	var seen []int64
	emit := func(row int64, v int64) { seen = append(seen, v) }

	rows, done := Probe(m, keys, preHash, nil, &state, emit)
	require.False(t, done)
	require.Equal(t, types.VectorLength, rows)

	rows, done = Probe(m, keys, preHash, nil, &state, emit)
	require.True(t, done)
	require.Equal(t, 20000-types.VectorLength, rows)

	require.Len(t, seen, 20000)
	for i, v := range seen {
		require.Equal(t, int64(100000+i), v)
	}
}

func keyBatch(keys []int32, nsp *nulls.Nulls) *batch.Batch {
	bat := batch.NewWithSize(1)
	vec := vector.NewFromSlice(types.New(types.T_int32, 0), keys)
	vec.SetNulls(nsp)
	bat.SetVector(0, vec)
	bat.SetRowCount(len(keys))
	return bat
}

func TestBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	batches := []*batch.Batch{
		keyBatch([]int32{1, 2, 1}, nil),
		keyBatch([]int32{3, 1, 9}, nulls.Build(2)),
	}
	r := mock_objectio.NewMockTableReader(ctrl)
	for _, bat := range batches {
		bat := bat
		r.EXPECT().LoadNextBatch(gomock.Any()).Return(true, nil)
		r.EXPECT().GetVector(0).Return(bat.GetVector(0))
		r.EXPECT().Batch().Return(bat)
	}
	r.EXPECT().LoadNextBatch(gomock.Any()).Return(false, nil)

	pool, err := mpool.NewBufferPool(1, 4)
	require.NoError(t, err)
	counts := pool.GetMap()
	require.NoError(t, counts.IncrementForKey(1, hashmap.IntKey(1).PreHash(), 7))

	batchNo := 0
	m, err := Build[int32, [2]int64](context.Background(), r, 0, 4, pool,
		func(bat *batch.Batch, row int64) [2]int64 {
			if bat == batches[1] {
				batchNo = 1
			}
			return [2]int64{int64(batchNo), row}
		})
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	idx := m.GetIndex(1, prehash.Long(1))
	require.Equal(t, [][2]int64{{0, 0}, {0, 2}, {1, 1}}, m.Records(idx))
	require.Equal(t, -1, m.GetIndex(9, prehash.Long(9)))

	// the scratch vectors are taken once and the pooled map is untouched
	require.Zero(t, pool.Stats().NumMaintenance.Load())
	require.Equal(t, int64(3), pool.Stats().NumAlloc.Load())
	v, ok := counts.Get(1, hashmap.IntKey(1).PreHash())
	require.True(t, ok)
	require.Equal(t, int64(7), v)
}

func TestBuildErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	pool, err := mpool.NewDirect(4)
	require.NoError(t, err)
	value := func(*batch.Batch, int64) int { return 0 }

	r := mock_objectio.NewMockTableReader(ctrl)
	r.EXPECT().LoadNextBatch(gomock.Any()).Return(false, moerr.NewQueryInterrupted(context.Background()))
	_, err = Build[int32, int](context.Background(), r, 0, 4, pool, value)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))

	r = mock_objectio.NewMockTableReader(ctrl)
	r.EXPECT().LoadNextBatch(gomock.Any()).Return(true, nil)
	r.EXPECT().GetVector(1).Return(nil)
	_, err = Build[int32, int](context.Background(), r, 1, 4, pool, value)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	bat := keyBatch([]int32{1}, nil)
	r = mock_objectio.NewMockTableReader(ctrl)
	r.EXPECT().LoadNextBatch(gomock.Any()).Return(true, nil)
	r.EXPECT().GetVector(0).Return(bat.GetVector(0))
	_, err = Build[int64, int](context.Background(), r, 0, 4, pool, value)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))

	neg := keyBatch([]int32{-4}, nil)
	r = mock_objectio.NewMockTableReader(ctrl)
	r.EXPECT().LoadNextBatch(gomock.Any()).Return(true, nil)
	r.EXPECT().GetVector(0).Return(neg.GetVector(0))
	r.EXPECT().Batch().Return(neg)
	_, err = Build[int32, int](context.Background(), r, 0, 4, pool, value)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	_, err = Build[int32, int](context.Background(), r, 0, 3, pool, value)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}
