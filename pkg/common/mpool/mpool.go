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

// Package mpool hands out the scratch vectors and maps operators work
// in. Under the pool policy they are recycled in bulk by
// PerformMaintenance; under the direct policy every request allocates.
package mpool

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/hashmap"
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/config"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

// IntMap is the simple int to long map operators aggregate into.
type IntMap = hashmap.AggregationMap[hashmap.IntKey, int64]

// AllocationManager hands out vectors of types.VectorLength elements.
// A vector stays usable until it is released or the next
// PerformMaintenance, whichever comes first; callers must not touch it
// afterwards even when the manager does not enforce it.
type AllocationManager interface {
	GetIntVector() []int32
	GetLongVector() []int64
	GetDoubleVector() []float64
	GetBooleanVector() []bool
	GetNestedByteVector() [][]byte
	// GetMap returns an empty map.
	GetMap() *IntMap

	ReleaseIntVector([]int32)
	ReleaseLongVector([]int64)
	ReleaseDoubleVector([]float64)
	ReleaseBooleanVector([]bool)
	ReleaseNestedByteVector([][]byte)
	ReleaseMap(*IntMap)

	// PerformMaintenance takes back everything handed out so far.
	PerformMaintenance()

	Stats() *Stats
}

type Stats struct {
	NumAlloc       atomic.Int64
	NumGrow        atomic.Int64
	NumMaintenance atomic.Int64
}

// NewAllocationManager creates the manager selected by the buffer pool
// policy of cfg.
func NewAllocationManager(cfg *config.Config) (AllocationManager, error) {
	switch cfg.Pool.Policy {
	case config.PoolPolicyBuffer:
		return NewBufferPool(cfg.Pool.InitialCapacity, cfg.HashMap.InitialCapacity)
	case config.PoolPolicyDirect:
		return NewDirect(cfg.HashMap.InitialCapacity)
	}
	return nil, moerr.NewBadConfig(context.TODO(), "unknown buffer pool policy %q", cfg.Pool.Policy)
}

func newIntMap(capacity int) *IntMap {
	m, err := hashmap.NewAggregationMap[hashmap.IntKey, int64](capacity, hashmap.CombineInt64)
	if err != nil {
		panic(err)
	}
	return m
}

// slots is the pool of one kind. Slots before next are handed out.
type slots[T any] struct {
	kind  string
	items []T
	next  int
	alloc func() T
	reset func(T)
	stats *Stats
}

func newSlots[T any](kind string, n int, stats *Stats, alloc func() T, reset func(T)) *slots[T] {
	s := &slots[T]{
		kind:  kind,
		items: make([]T, n),
		alloc: alloc,
		reset: reset,
		stats: stats,
	}
	for i := range s.items {
		s.items[i] = alloc()
	}
	return s
}

func (s *slots[T]) get() T {
	if s.next == len(s.items) {
		s.grow()
	}
	v := s.items[s.next]
	s.next++
	s.stats.NumAlloc.Add(1)
	return v
}

// grow doubles the kind independently of the others.
func (s *slots[T]) grow() {
	n := len(s.items)
	for i := 0; i < n; i++ {
		s.items = append(s.items, s.alloc())
	}
	s.stats.NumGrow.Add(1)
	logutil.Debug("buffer pool grown", zap.String("kind", s.kind), zap.Int("size", len(s.items)))
}

func (s *slots[T]) maintain() {
	for _, v := range s.items[:s.next] {
		s.reset(v)
	}
	s.next = 0
}

func clearSlice[T any](v []T) {
	clear(v)
}

// BufferPool preallocates every kind and recycles it on maintenance.
type BufferPool struct {
	ints    *slots[[]int32]
	longs   *slots[[]int64]
	doubles *slots[[]float64]
	bools   *slots[[]bool]
	nested  *slots[[][]byte]
	maps    *slots[*IntMap]

	stats Stats
}

var _ AllocationManager = new(BufferPool)

// NewBufferPool allocates initialCapacity vectors of every kind and as
// many maps of mapCapacity.
func NewBufferPool(initialCapacity, mapCapacity int) (*BufferPool, error) {
	ctx := context.TODO()
	if initialCapacity < 1 {
		return nil, moerr.NewInvalidArg(ctx, "buffer pool capacity", initialCapacity)
	}
	if mapCapacity < 2 || mapCapacity&(mapCapacity-1) != 0 {
		return nil, moerr.NewInvalidArg(ctx, "map capacity", mapCapacity)
	}
	p := &BufferPool{}
	p.ints = newSlots("int", initialCapacity, &p.stats,
		func() []int32 { return make([]int32, types.VectorLength) }, clearSlice[int32])
	p.longs = newSlots("long", initialCapacity, &p.stats,
		func() []int64 { return make([]int64, types.VectorLength) }, clearSlice[int64])
	p.doubles = newSlots("double", initialCapacity, &p.stats,
		func() []float64 { return make([]float64, types.VectorLength) }, clearSlice[float64])
	p.bools = newSlots("boolean", initialCapacity, &p.stats,
		func() []bool { return make([]bool, types.VectorLength) }, clearSlice[bool])
	p.nested = newSlots("nested byte", initialCapacity, &p.stats,
		func() [][]byte { return make([][]byte, types.VectorLength) }, clearSlice[[]byte])
	p.maps = newSlots("map", initialCapacity, &p.stats,
		func() *IntMap { return newIntMap(mapCapacity) }, (*IntMap).Reset)
	return p, nil
}

func (p *BufferPool) GetIntVector() []int32 { return p.ints.get() }

func (p *BufferPool) GetLongVector() []int64 { return p.longs.get() }

func (p *BufferPool) GetDoubleVector() []float64 { return p.doubles.get() }

func (p *BufferPool) GetBooleanVector() []bool { return p.bools.get() }

func (p *BufferPool) GetNestedByteVector() [][]byte { return p.nested.get() }

func (p *BufferPool) GetMap() *IntMap { return p.maps.get() }

// Release is advisory under the pool policy; memory comes back on the
// next PerformMaintenance.
func (p *BufferPool) ReleaseIntVector([]int32) {}
func (p *BufferPool) ReleaseLongVector([]int64) {}
func (p *BufferPool) ReleaseDoubleVector([]float64) {}
func (p *BufferPool) ReleaseBooleanVector([]bool) {}
func (p *BufferPool) ReleaseNestedByteVector([][]byte) {}
func (p *BufferPool) ReleaseMap(*IntMap) {}

func (p *BufferPool) PerformMaintenance() {
	p.ints.maintain()
	p.longs.maintain()
	p.doubles.maintain()
	p.bools.maintain()
	p.nested.maintain()
	p.maps.maintain()
	p.stats.NumMaintenance.Add(1)
	logutil.Debug("buffer pool maintained", zap.Int64("allocations", p.stats.NumAlloc.Load()))
}

func (p *BufferPool) Stats() *Stats {
	return &p.stats
}

// Direct allocates on every request and never recycles.
type Direct struct {
	mapCapacity int
	stats       Stats
}

var _ AllocationManager = new(Direct)

func NewDirect(mapCapacity int) (*Direct, error) {
	if mapCapacity < 2 || mapCapacity&(mapCapacity-1) != 0 {
		return nil, moerr.NewInvalidArg(context.TODO(), "map capacity", mapCapacity)
	}
	return &Direct{mapCapacity: mapCapacity}, nil
}

func (d *Direct) GetIntVector() []int32 {
	d.stats.NumAlloc.Add(1)
	return make([]int32, types.VectorLength)
}

func (d *Direct) GetLongVector() []int64 {
	d.stats.NumAlloc.Add(1)
	return make([]int64, types.VectorLength)
}

func (d *Direct) GetDoubleVector() []float64 {
	d.stats.NumAlloc.Add(1)
	return make([]float64, types.VectorLength)
}

func (d *Direct) GetBooleanVector() []bool {
	d.stats.NumAlloc.Add(1)
	return make([]bool, types.VectorLength)
}

func (d *Direct) GetNestedByteVector() [][]byte {
	d.stats.NumAlloc.Add(1)
	return make([][]byte, types.VectorLength)
}

func (d *Direct) GetMap() *IntMap {
	d.stats.NumAlloc.Add(1)
	return newIntMap(d.mapCapacity)
}

func (d *Direct) ReleaseIntVector([]int32) {}
func (d *Direct) ReleaseLongVector([]int64) {}
func (d *Direct) ReleaseDoubleVector([]float64) {}
func (d *Direct) ReleaseBooleanVector([]bool) {}
func (d *Direct) ReleaseNestedByteVector([][]byte) {}
func (d *Direct) ReleaseMap(*IntMap) {}

func (d *Direct) PerformMaintenance() {
	d.stats.NumMaintenance.Add(1)
}

func (d *Direct) Stats() *Stats {
	return &d.stats
}
