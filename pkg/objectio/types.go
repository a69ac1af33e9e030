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

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

// TableReader streams the record batches of one arrow file as batches.
//
// A batch returned by Batch stays valid until the next LoadNextBatch,
// Reset or Close. Readers are not safe for concurrent use by more than
// one consumer.
type TableReader interface {
	// LoadNextBatch advances to the next batch. It returns false once the
	// file is exhausted.
	LoadNextBatch(ctx context.Context) (bool, error)
	// Batch is the current batch, nil before the first successful load.
	Batch() *batch.Batch
	// GetVector is a shortcut for the i-th column of the current batch.
	GetVector(i int) *vector.Vector
	// Reset rewinds the reader to the first batch.
	Reset() error
	Close() error
}

// Options of a table reader.
type Options struct {
	// Projection lists the columns to materialize, empty means all.
	Projection []int
	// QueueCapacity bounds the batches decoded ahead of the consumer.
	QueueCapacity int
	// Allocator backs the decoded arrow buffers.
	Allocator memory.Allocator
}

func (o Options) allocator() memory.Allocator {
	if o.Allocator == nil {
		return memory.DefaultAllocator
	}
	return o.Allocator
}

func (o Options) queueCapacity() int {
	if o.QueueCapacity < 1 {
		return 1
	}
	return o.QueueCapacity
}
