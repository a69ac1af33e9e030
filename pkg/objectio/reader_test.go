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


package objectio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/config"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "name", Type: arrow.BinaryTypes.String},
}, nil)

// testRows are the ids of each record batch of the test file. Price is
// id/2 and name is the id as a letter.
var testRows = [][]int32{
	{1, 2, 3},
	{4, 5},
	{6, 7, 8, 9},
}

func writeTestFile(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "table.arrow")
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	w, err := NewTableWriter(context.Background(), path, testSchema, mem)
	require.NoError(t, err)
	b := array.NewRecordBuilder(mem, testSchema)
	defer b.Release()
	for _, ids := range testRows {
		valid := make([]bool, len(ids))
		for i, id := range ids {
			valid[i] = id != 5
			b.Field(1).(*array.Float64Builder).Append(float64(id) / 2)
			b.Field(2).(*array.StringBuilder).Append(string(rune('a' + id)))
		}
		b.Field(0).(*array.Int32Builder).AppendValues(ids, valid)
		rec := b.NewRecord()
		err := w.Write(context.Background(), rec)
		rec.Release()
		require.NoError(t, err)
	}
	batches, rows := w.Stats()
	require.Equal(t, 3, batches)
	require.Equal(t, int64(9), rows)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	return path
}

func writeRawFile(t *testing.T, rec arrow.Record) string {
	path := filepath.Join(t.TempDir(), "raw.arrow")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()))
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return path
}

func newTestPool(t *testing.T) *ants.Pool {
	pool, err := NewProducerPool(2)
	require.NoError(t, err)
	return pool
}

func checkBatch(t *testing.T, r TableReader, ids []int32) {
	bat := r.Batch()
	require.NotNil(t, bat)
	require.Equal(t, len(ids), bat.RowCount())

	idv := r.GetVector(0)
	require.Equal(t, ids, vector.MustFixedCol[int32](idv))
	prices := vector.MustFixedCol[float64](r.GetVector(1))
	for i, id := range ids {
		require.Equal(t, id == 5, idv.IsNull(uint64(i)))
		require.Equal(t, float64(id)/2, prices[i])
		require.Equal(t, string(rune('a'+id)), r.GetVector(2).GetString(i))
	}
}

func readAll(t *testing.T, r TableReader) {
	ctx := context.Background()
	for _, ids := range testRows {
		ok, err := r.LoadNextBatch(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		checkBatch(t, r, ids)
	}
	ok, err := r.LoadNextBatch(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, r.Batch())

	ok, err = r.LoadNextBatch(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func openKind(t *testing.T, kind, path string, mem memory.Allocator, pool *ants.Pool, projection []int) TableReader {
	cfg := config.ReaderParameters{
		Kind:          kind,
		QueueCapacity: 1,
		Projection:    projection,
	}
	r, err := Open(context.Background(), path, cfg, mem, pool)
	require.NoError(t, err)
	return r
}

var readerKinds = []string{config.ReaderKindAsync, config.ReaderKindDirect, config.ReaderKindCaching}

func TestReadAllBatches(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := writeTestFile(t)
	pool := newTestPool(t)
	defer pool.Release()

	for _, kind := range readerKinds {
		t.Run(kind, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			r := openKind(t, kind, path, mem, pool, nil)
			require.Nil(t, r.Batch())
			require.Nil(t, r.GetVector(0))
			readAll(t, r)
			require.NoError(t, r.Close())
			require.NoError(t, r.Close())

			_, err := r.LoadNextBatch(context.Background())
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))
			require.True(t, moerr.IsMoErrCode(r.Reset(), moerr.ErrInvalidState))
		})
	}
}

func TestFixedBytesColumn(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "code", Type: &arrow.FixedSizeBinaryType{ByteWidth: 3}, Nullable: true},
	}, nil)
	path := filepath.Join(t.TempDir(), "codes.arrow")

	wmem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	w, err := NewTableWriter(ctx, path, schema, wmem)
	require.NoError(t, err)
	fb := array.NewFixedSizeBinaryBuilder(wmem, &arrow.FixedSizeBinaryType{ByteWidth: 3})
	fb.AppendValues([][]byte{[]byte("AAA"), []byte("BBB"), []byte("CCC"), []byte("DDD"), []byte("EEE")},
		[]bool{true, true, true, false, true})
	arr := fb.NewArray()
	fb.Release()
	for _, part := range [][2]int64{{0, 2}, {2, 5}} {
		sliced := array.NewSlice(arr, part[0], part[1])
		rec := array.NewRecord(schema, []arrow.Array{sliced}, part[1]-part[0])
		require.NoError(t, w.Write(ctx, rec))
		rec.Release()
		sliced.Release()
	}
	arr.Release()
	require.NoError(t, w.Close())
	wmem.AssertSize(t, 0)

	pool := newTestPool(t)
	defer pool.Release()
	expected := [][]string{{"AAA", "BBB"}, {"CCC", "", "EEE"}}
	for _, kind := range readerKinds {
		t.Run(kind, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			r := openKind(t, kind, path, mem, pool, nil)
			for _, codes := range expected {
				ok, err := r.LoadNextBatch(ctx)
				require.NoError(t, err)
				require.True(t, ok)
				vec := r.GetVector(0)
				require.Equal(t, types.T_fixed_bytes, vec.GetType().Oid)
				data, width := vector.MustFixedBytes(vec)
				require.Equal(t, 3, width)
				require.Len(t, data, 3*len(codes))
				for i, code := range codes {
					require.Equal(t, code == "", vec.IsNull(uint64(i)))
					if code != "" {
						require.Equal(t, code, string(vec.GetBytes(i)))
					}
				}
			}
			ok, err := r.LoadNextBatch(ctx)
			require.NoError(t, err)
			require.False(t, ok)
			require.NoError(t, r.Close())
		})
	}
}

func TestReset(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := writeTestFile(t)
	pool := newTestPool(t)
	defer pool.Release()

	for _, kind := range readerKinds {
		t.Run(kind, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			r := openKind(t, kind, path, mem, pool, nil)
			// reset of an idle reader
			require.NoError(t, r.Reset())

			ok, err := r.LoadNextBatch(context.Background())
			require.NoError(t, err)
			require.True(t, ok)
			checkBatch(t, r, testRows[0])

			require.NoError(t, r.Reset())
			require.NoError(t, r.Reset())
			readAll(t, r)

			require.NoError(t, r.Reset())
			readAll(t, r)
			require.NoError(t, r.Close())
		})
	}
}

func TestProjection(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := writeTestFile(t)
	pool := newTestPool(t)
	defer pool.Release()

	for _, kind := range readerKinds {
		t.Run(kind, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			r := openKind(t, kind, path, mem, pool, []int{1})
			ok, err := r.LoadNextBatch(context.Background())
			require.NoError(t, err)
			require.True(t, ok)
			require.Nil(t, r.GetVector(0))
			require.Nil(t, r.GetVector(2))
			require.Equal(t, []float64{0.5, 1, 1.5}, vector.MustFixedCol[float64](r.GetVector(1)))
			require.Equal(t, []string{"id", "price", "name"}, r.Batch().Attrs)
			require.NoError(t, r.Close())
		})
	}

	_, err := NewDirectReader(context.Background(), path, Options{Projection: []int{3}})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}

func TestOpenErrors(t *testing.T) {
	defer leaktest.AfterTest(t)()
	ctx := context.Background()
	pool := newTestPool(t)
	defer pool.Release()

	missing := filepath.Join(t.TempDir(), "missing.arrow")
	for _, kind := range readerKinds {
		_, err := Open(ctx, missing, config.ReaderParameters{Kind: kind}, nil, pool)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrFileNotFound), "%s: %v", kind, err)
	}

	path := writeTestFile(t)
	_, err := Open(ctx, path, config.ReaderParameters{Kind: config.ReaderKindAsync}, nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = Open(ctx, path, config.ReaderParameters{Kind: "mmap"}, nil, pool)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	truncated := filepath.Join(t.TempDir(), "truncated.arrow")
	require.NoError(t, os.WriteFile(truncated, data[:len(data)/2], 0o644))
	for _, kind := range readerKinds {
		_, err = Open(ctx, truncated, config.ReaderParameters{Kind: kind}, nil, pool)
		require.True(t,
			moerr.IsMoErrCode(err, moerr.ErrInvalidInput) || moerr.IsMoErrCode(err, moerr.ErrUnexpectedEOF),
			"%s: %v", kind, err)
	}
}

func TestUnsupportedColumn(t *testing.T) {
	defer leaktest.AfterTest(t)()
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32},
		{Name: "amount", Type: &arrow.Decimal128Type{Precision: 10, Scale: 2}},
	}, nil)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).Append(1)
	b.Field(1).(*array.Decimal128Builder).Append(decimal128.FromI64(150))
	rec := b.NewRecord()
	defer rec.Release()
	path := writeRawFile(t, rec)

	pool := newTestPool(t)
	defer pool.Release()
	for _, kind := range readerKinds {
		_, err := Open(context.Background(), path, config.ReaderParameters{Kind: kind}, nil, pool)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported), "%s: %v", kind, err)
	}

	// the unsupported column is never decoded when it is not projected
	r, err := NewDirectReader(context.Background(), path, Options{Projection: []int{0}})
	require.NoError(t, err)
	ok, err := r.LoadNextBatch(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []int32{1}, vector.MustFixedCol[int32](r.GetVector(0)))
	require.NoError(t, r.Close())

	_, err = NewTableWriter(context.Background(), filepath.Join(t.TempDir(), "w.arrow"), schema, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestProducerError(t *testing.T) {
	defer leaktest.AfterTest(t)()
	mem := memory.NewGoAllocator()
	b := array.NewInt32Builder(mem)
	defer b.Release()
	b.AppendValues(make([]int32, types.VectorLength+1), nil)
	arr := b.NewArray()
	defer arr.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int32}}, nil)
	rec := array.NewRecord(schema, []arrow.Array{arr}, int64(arr.Len()))
	defer rec.Release()
	path := writeRawFile(t, rec)

	pool := newTestPool(t)
	defer pool.Release()
	for _, kind := range []string{config.ReaderKindAsync, config.ReaderKindDirect} {
		r := openKind(t, kind, path, nil, pool, nil)
		_, err := r.LoadNextBatch(context.Background())
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput), "%s: %v", kind, err)
		require.NoError(t, r.Close())
	}
	_, err := Open(context.Background(), path, config.ReaderParameters{Kind: config.ReaderKindCaching}, nil, pool)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}

func TestInterrupted(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := writeTestFile(t)
	pool := newTestPool(t)
	defer pool.Release()

	for _, kind := range readerKinds {
		t.Run(kind, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			r := openKind(t, kind, path, mem, pool, nil)
			ok, err := r.LoadNextBatch(context.Background())
			require.NoError(t, err)
			require.True(t, ok)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = r.LoadNextBatch(ctx)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))
			require.NoError(t, r.Close())
		})
	}
}

func TestAsyncInterruptPoisons(t *testing.T) {
	defer leaktest.AfterTest(t)()
	path := writeTestFile(t)
	pool := newTestPool(t)
	defer pool.Release()

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	r, err := NewAsyncReader(context.Background(), path, Options{Allocator: mem}, pool)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.LoadNextBatch(ctx)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))

	_, err = r.LoadNextBatch(context.Background())
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrQueryInterrupted))
	require.True(t, moerr.IsMoErrCode(r.Reset(), moerr.ErrQueryInterrupted))
	require.NoError(t, r.Close())

	// other readers of the same file are not affected
	other, err := NewAsyncReader(context.Background(), path, Options{Allocator: mem}, pool)
	require.NoError(t, err)
	readAll(t, other)
	require.NoError(t, other.Close())
}

func TestWriterRejects(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	ctx := context.Background()

	w, err := NewTableWriter(ctx, filepath.Join(t.TempDir(), "w.arrow"), testSchema, mem)
	require.NoError(t, err)

	other := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
	b := array.NewRecordBuilder(mem, other)
	b.Field(0).(*array.Int64Builder).Append(1)
	rec := b.NewRecord()
	b.Release()
	require.True(t, moerr.IsMoErrCode(w.Write(ctx, rec), moerr.ErrInvalidInput))
	rec.Release()

	require.NoError(t, w.Close())

	_, err = NewTableWriter(ctx, filepath.Join(t.TempDir(), "missing", "w.arrow"), testSchema, mem)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidPath))
}
