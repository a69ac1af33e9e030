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
	"github.com/panjf2000/ants/v2"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/config"
)

// Open returns the reader kind selected by the configuration. pool is
// only used by the async reader.
func Open(
	ctx context.Context,
	path string,
	cfg config.ReaderParameters,
	mem memory.Allocator,
	pool *ants.Pool,
) (TableReader, error) {
	opts := Options{
		Projection:    cfg.Projection,
		QueueCapacity: cfg.QueueCapacity,
		Allocator:     mem,
	}
	switch cfg.Kind {
	case config.ReaderKindAsync:
		if pool == nil {
			return nil, moerr.NewInvalidArg(ctx, "producer pool", "nil")
		}
		return NewAsyncReader(ctx, path, opts, pool)
	case config.ReaderKindDirect:
		return NewDirectReader(ctx, path, opts)
	case config.ReaderKindCaching:
		return NewCachingReader(ctx, path, opts)
	}
	return nil, moerr.NewBadConfig(ctx, "unknown reader kind %q", cfg.Kind)
}
