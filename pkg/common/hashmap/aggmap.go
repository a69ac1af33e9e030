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

package hashmap

import (
	"context"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/hashtable"
)

// Key is a possibly composite grouping key. PreHash must be the value
// callers pass alongside the key, since the map recomputes it when it
// rehashes. Valid rejects keys whose first ordinal is negative or empty.
type Key interface {
	comparable
	PreHash() int64
	Valid() bool
}

// Combine folds delta into the accumulator tuple acc.
type Combine[V any] func(acc *V, delta V)

// AggregationMap keeps one accumulator tuple per key. Entries are kept
// in insertion order, which is the only iteration order it offers.
type AggregationMap[K Key, V any] struct {
	numberOfRecords int
	keys            []K
	values          []V
	combine         Combine[V]

	index *hashtable.ChainedIndex
}

// NewAggregationMap creates a map with room for capacity keys. capacity
// must be a power of two larger than one.
func NewAggregationMap[K Key, V any](capacity int, combine Combine[V]) (*AggregationMap[K, V], error) {
	if err := checkCapacity(context.TODO(), capacity); err != nil {
		return nil, err
	}
	return &AggregationMap[K, V]{
		keys:    make([]K, capacity),
		values:  make([]V, capacity),
		combine: combine,
		index:   hashtable.NewChainedIndex(capacity, capacity),
	}, nil
}

// IncrementForKey starts the accumulators of a new key at delta, or
// combines delta into the accumulators of a known one.
func (m *AggregationMap[K, V]) IncrementForKey(key K, preHash int64, delta V) error {
	idx, created, err := m.entry(key, preHash)
	if err != nil {
		return err
	}
	if created {
		m.values[idx] = delta
	} else {
		m.combine(&m.values[idx], delta)
	}
	return nil
}

// Put stores v as the accumulators of key, replacing any previous value.
func (m *AggregationMap[K, V]) Put(key K, preHash int64, v V) error {
	idx, _, err := m.entry(key, preHash)
	if err != nil {
		return err
	}
	m.values[idx] = v
	return nil
}

func (m *AggregationMap[K, V]) Get(key K, preHash int64) (V, bool) {
	var v V

	idx := m.GetIndex(key, preHash)
	if idx < 0 {
		return v, false
	}
	return m.values[idx], true
}

// GetIndex returns the insertion index of key, or -1.
func (m *AggregationMap[K, V]) GetIndex(key K, preHash int64) int {
	if !key.Valid() {
		return -1
	}
	return int(hashtable.Find(m.index, m.keys, key, preHash))
}

func (m *AggregationMap[K, V]) entry(key K, preHash int64) (int32, bool, error) {
	if !key.Valid() {
		return 0, false, moerr.NewInvalidArg(context.TODO(), "aggregation map key", key)
	}
	if idx := hashtable.Find(m.index, m.keys, key, preHash); idx != -1 {
		return idx, false, nil
	}
	if m.numberOfRecords == len(m.keys) {
		if err := m.growArrays(); err != nil {
			return 0, false, err
		}
	}
	idx := int32(m.numberOfRecords)
	m.numberOfRecords++
	m.keys[idx] = key

	rehashOnCollision := m.index.Overloaded(m.numberOfRecords)
	if !m.index.Insert(preHash, idx, rehashOnCollision) {
		m.index.Rebuild(m.numberOfRecords, func(i int32) int64 {
			return m.keys[i].PreHash()
		})
	}
	return idx, true, nil
}

func (m *AggregationMap[K, V]) growArrays() error {
	size, err := grownSize(context.TODO(), len(m.keys))
	if err != nil {
		return err
	}

	keys := make([]K, size)
	copy(keys, m.keys)
	m.keys = keys

	values := make([]V, size)
	copy(values, m.values)
	m.values = values

	m.index.GrowEntries(size)
	return nil
}

func (m *AggregationMap[K, V]) KeyAt(i int) K {
	return m.keys[i]
}

func (m *AggregationMap[K, V]) ValueAt(i int) V {
	return m.values[i]
}

// Len is the number of distinct keys.
func (m *AggregationMap[K, V]) Len() int {
	return m.numberOfRecords
}

// Range calls fn for every entry in insertion order until fn returns
// false.
func (m *AggregationMap[K, V]) Range(fn func(key K, v V) bool) {
	for i := 0; i < m.numberOfRecords; i++ {
		if !fn(m.keys[i], m.values[i]) {
			return
		}
	}
}

// Reset empties the map and keeps its arrays.
func (m *AggregationMap[K, V]) Reset() {
	clear(m.keys[:m.numberOfRecords])
	clear(m.values[:m.numberOfRecords])
	m.numberOfRecords = 0
	m.index.Reset()
}
