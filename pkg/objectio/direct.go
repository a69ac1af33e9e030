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

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

// DirectReader decodes record batches on the consumer goroutine.
type DirectReader struct {
	file    *tableFile
	cursor  int
	current *batch.Batch
	closed  bool
}

var _ TableReader = (*DirectReader)(nil)

func NewDirectReader(ctx context.Context, path string, opts Options) (*DirectReader, error) {
	tf, err := openTableFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return &DirectReader{file: tf}, nil
}

func (r *DirectReader) LoadNextBatch(ctx context.Context) (bool, error) {
	if r.closed {
		return false, moerr.NewInvalidState(ctx, "reader of %s is closed", r.file.path)
	}
	if err := ctx.Err(); err != nil {
		return false, moerr.NewQueryInterrupted(ctx)
	}
	r.current.Clean()
	r.current = nil
	if r.cursor >= r.file.numRecords() {
		return false, nil
	}
	bat, err := r.file.readBatch(ctx, r.cursor)
	if err != nil {
		return false, err
	}
	r.cursor++
	r.current = bat
	return true, nil
}

func (r *DirectReader) Batch() *batch.Batch {
	return r.current
}

func (r *DirectReader) GetVector(i int) *vector.Vector {
	if r.current == nil {
		return nil
	}
	return r.current.GetVector(int32(i))
}

func (r *DirectReader) Reset() error {
	if r.closed {
		return moerr.NewInvalidState(context.Background(), "reader of %s is closed", r.file.path)
	}
	r.current.Clean()
	r.current = nil
	r.cursor = 0
	return nil
}

func (r *DirectReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.current.Clean()
	r.current = nil
	r.file.close()
	return nil
}
