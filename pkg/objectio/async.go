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
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

// NewProducerPool returns the pool the asynchronous readers run their
// producers on. A panicking producer is logged and re-raised.
func NewProducerPool(size int) (*ants.Pool, error) {
	return ants.NewPool(size, ants.WithPanicHandler(func(v interface{}) {
		logutil.Error("table reader producer panic", zap.Any("panic", v))
		panic(v)
	}))
}

// producer decodes the record batches of one pass over the file and hands
// them to the consumer. Every batch is announced on hasMore before it is
// sent on payload; a false on hasMore ends the pass and err, written
// before that send, tells a failure from exhaustion.
type producer struct {
	file    *tableFile
	ctx     context.Context
	cancel  context.CancelFunc
	hasMore chan bool
	payload chan *batch.Batch
	wg      sync.WaitGroup
	started bool
	stopped bool
	err     error
}

func newProducer(ctx context.Context, path string, opts Options) (*producer, error) {
	tf, err := openTableFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithCancel(context.Background())
	return &producer{
		file:    tf,
		ctx:     pctx,
		cancel:  cancel,
		hasMore: make(chan bool, opts.queueCapacity()),
		payload: make(chan *batch.Batch, opts.queueCapacity()),
	}, nil
}

func (p *producer) start(pool *ants.Pool) error {
	p.started = true
	p.wg.Add(1)
	if err := pool.Submit(p.run); err != nil {
		p.wg.Done()
		p.started = false
		return moerr.NewInternalErrorNoCtx("submit producer of %s: %v", p.file.path, err)
	}
	return nil
}

func (p *producer) run() {
	defer p.wg.Done()
	for i := 0; i < p.file.numRecords(); i++ {
		bat, err := p.file.readBatch(p.ctx, i)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.err = err
			p.announce(false)
			return
		}
		if !p.announce(true) {
			bat.Clean()
			return
		}
		select {
		case p.payload <- bat:
		case <-p.ctx.Done():
			bat.Clean()
			return
		}
	}
	p.announce(false)
}

func (p *producer) announce(more bool) bool {
	select {
	case p.hasMore <- more:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// stop cancels the pass, waits for the task to leave and releases every
// batch still queued.
func (p *producer) stop() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.cancel()
	p.file.closeFile()
	p.wg.Wait()
	for {
		select {
		case bat := <-p.payload:
			bat.Clean()
		default:
			p.file.close()
			return
		}
	}
}

// AsyncReader decodes record batches on a producer task running ahead of
// the consumer, bounded by the queue capacity. The producer is started by
// the first LoadNextBatch.
type AsyncReader struct {
	path string
	opts Options
	pool *ants.Pool

	producer  *producer
	current   *batch.Batch
	exhausted bool
	closed    bool
	// err poisons the reader after an interrupted take.
	err error
}

var _ TableReader = (*AsyncReader)(nil)

func NewAsyncReader(ctx context.Context, path string, opts Options, pool *ants.Pool) (*AsyncReader, error) {
	p, err := newProducer(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return &AsyncReader{
		path:     path,
		opts:     opts,
		pool:     pool,
		producer: p,
	}, nil
}

func (r *AsyncReader) LoadNextBatch(ctx context.Context) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.closed {
		return false, moerr.NewInvalidState(ctx, "reader of %s is closed", r.path)
	}
	r.current.Clean()
	r.current = nil
	if r.exhausted {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, r.interrupt(ctx)
	}
	p := r.producer
	if !p.started {
		logutil.Debug("start table reader producer", zap.String("path", r.path))
		if err := p.start(r.pool); err != nil {
			return false, err
		}
	}

	select {
	case more := <-p.hasMore:
		if !more {
			r.exhausted = true
			if p.err != nil {
				r.err = p.err
				return false, p.err
			}
			return false, nil
		}
	case <-ctx.Done():
		return false, r.interrupt(ctx)
	}

	select {
	case bat := <-p.payload:
		r.current = bat
		return true, nil
	case <-ctx.Done():
		return false, r.interrupt(ctx)
	}
}

func (r *AsyncReader) interrupt(ctx context.Context) error {
	logutil.Debug("table reader interrupted", zap.String("path", r.path))
	r.err = moerr.NewQueryInterrupted(ctx)
	r.producer.stop()
	return r.err
}

func (r *AsyncReader) Batch() *batch.Batch {
	return r.current
}

func (r *AsyncReader) GetVector(i int) *vector.Vector {
	if r.current == nil {
		return nil
	}
	return r.current.GetVector(int32(i))
}

// Reset stops the running producer and replaces it with an idle one that
// reads the file from the start.
func (r *AsyncReader) Reset() error {
	if r.err != nil {
		return r.err
	}
	if r.closed {
		return moerr.NewInvalidState(context.Background(), "reader of %s is closed", r.path)
	}
	r.current.Clean()
	r.current = nil
	if !r.producer.started && !r.exhausted {
		return nil
	}
	logutil.Debug("reset table reader", zap.String("path", r.path))
	r.producer.stop()
	p, err := newProducer(context.Background(), r.path, r.opts)
	if err != nil {
		r.err = err
		return err
	}
	r.producer = p
	r.exhausted = false
	return nil
}

func (r *AsyncReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.current.Clean()
	r.current = nil
	r.producer.stop()
	logutil.Debug("close table reader", zap.String("path", r.path))
	return nil
}
