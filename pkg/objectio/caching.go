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

	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

// CachingReader decodes the whole file when it is opened and serves the
// batches from memory, so a Reset is a rewind.
type CachingReader struct {
	path    string
	batches []*batch.Batch
	cursor  int
	closed  bool
}

var _ TableReader = (*CachingReader)(nil)

func NewCachingReader(ctx context.Context, path string, opts Options) (*CachingReader, error) {
	tf, err := openTableFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer tf.close()

	r := &CachingReader{
		path:    path,
		batches: make([]*batch.Batch, 0, tf.numRecords()),
	}
	for i := 0; i < tf.numRecords(); i++ {
		bat, err := tf.readBatch(ctx, i)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.batches = append(r.batches, bat)
	}
	logutil.Debug("cache table file", zap.String("path", path), zap.Int("batches", len(r.batches)))
	return r, nil
}

func (r *CachingReader) LoadNextBatch(ctx context.Context) (bool, error) {
	if r.closed {
		return false, moerr.NewInvalidState(ctx, "reader of %s is closed", r.path)
	}
	if err := ctx.Err(); err != nil {
		return false, moerr.NewQueryInterrupted(ctx)
	}
	if r.cursor >= len(r.batches) {
		r.cursor = len(r.batches) + 1
		return false, nil
	}
	r.cursor++
	return true, nil
}

func (r *CachingReader) Batch() *batch.Batch {
	if r.cursor == 0 || r.cursor > len(r.batches) {
		return nil
	}
	return r.batches[r.cursor-1]
}

func (r *CachingReader) GetVector(i int) *vector.Vector {
	bat := r.Batch()
	if bat == nil {
		return nil
	}
	return bat.GetVector(int32(i))
}

func (r *CachingReader) Reset() error {
	if r.closed {
		return moerr.NewInvalidState(context.Background(), "reader of %s is closed", r.path)
	}
	r.cursor = 0
	return nil
}

func (r *CachingReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, bat := range r.batches {
		bat.Clean()
	}
	r.batches = nil
	return nil
}
