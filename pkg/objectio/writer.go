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
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
)

// TableWriter writes record batches to an arrow file.
type TableWriter struct {
	sync.Mutex
	path   string
	f      *os.File
	w      *ipc.FileWriter
	schema *arrow.Schema
	rows   int64
	count  int
}

func NewTableWriter(ctx context.Context, path string, schema *arrow.Schema, mem memory.Allocator) (*TableWriter, error) {
	for _, field := range schema.Fields() {
		if _, err := types.FromArrow(ctx, field.Type); err != nil {
			return nil, err
		}
	}
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, moerr.NewInvalidPath(ctx, path).WithDetail(err.Error())
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return nil, moerr.NewInternalError(ctx, "create arrow writer for %s: %v", path, err)
	}
	return &TableWriter{
		path:   path,
		f:      f,
		w:      w,
		schema: schema,
	}, nil
}

// Write appends one record batch. Batches larger than a vector are
// rejected because no reader could load them.
func (w *TableWriter) Write(ctx context.Context, rec arrow.Record) error {
	w.Lock()
	defer w.Unlock()
	if rec.NumRows() > types.VectorLength {
		return moerr.NewInvalidInput(ctx, "record batch of %d rows exceeds vector length %d", rec.NumRows(), types.VectorLength)
	}
	if !rec.Schema().Equal(w.schema) {
		return moerr.NewInvalidInput(ctx, "record schema %s does not match %s", rec.Schema(), w.schema)
	}
	if err := w.w.Write(rec); err != nil {
		return moerr.NewInternalError(ctx, "write %s: %v", w.path, err)
	}
	w.rows += rec.NumRows()
	w.count++
	return nil
}

// Stats returns the number of batches and rows written so far.
func (w *TableWriter) Stats() (batches int, rows int64) {
	w.Lock()
	defer w.Unlock()
	return w.count, w.rows
}

func (w *TableWriter) Close() error {
	w.Lock()
	defer w.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Close()
	w.w = nil
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return moerr.NewInternalErrorNoCtx("close %s: %v", w.path, err)
	}
	return nil
}
