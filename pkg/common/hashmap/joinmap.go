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
	"math"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/hashtable"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
)

const (
	initialRecordsPerKey = 8

	// maxEntries keeps every entry addressable by an int32 chain link.
	maxEntries = math.MaxInt32 - 1
)

func checkCapacity(ctx context.Context, capacity int) error {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return moerr.NewInvalidArg(ctx, "map capacity", capacity)
	}
	return nil
}

// grownSize doubles size, failing once the map would outgrow the index
// range of its chain links.
func grownSize(ctx context.Context, size int) (int, error) {
	if size >= maxEntries {
		return 0, moerr.NewCapacityExceeded(ctx, "hash map", maxEntries)
	}
	size *= 2
	if size > maxEntries {
		size = maxEntries
	}
	return size, nil
}

// JoinMap is the build side of a hash join: every key owns the list of
// value tuples associated with it, in association order. Pre-hash values
// passed in must be prehash.Long of the key, the value the map recomputes
// when it rehashes.
type JoinMap[K types.Int, V any] struct {
	numberOfRecords int
	keys            []K
	keysRecordCount []int32
	records         [][]V

	index *hashtable.ChainedIndex
}

// NewJoinMap creates a map with room for capacity keys. capacity must
// be a power of two larger than one.
func NewJoinMap[K types.Int, V any](capacity int) (*JoinMap[K, V], error) {
	if err := checkCapacity(context.TODO(), capacity); err != nil {
		return nil, err
	}
	return &JoinMap[K, V]{
		keys:            make([]K, capacity),
		keysRecordCount: make([]int32, capacity),
		records:         make([][]V, capacity),
		index:           hashtable.NewChainedIndex(capacity, capacity),
	}, nil
}

// Associate appends v to the records of key.
func (m *JoinMap[K, V]) Associate(key K, preHash int64, v V) error {
	if key < 0 {
		return moerr.NewInvalidArg(context.TODO(), "join map key", int64(key))
	}

	idx := hashtable.Find(m.index, m.keys, key, preHash)
	newEntry := false
	if idx == -1 {
		if m.numberOfRecords == len(m.keys) {
			if err := m.growArrays(); err != nil {
				return err
			}
		}
		newEntry = true
		idx = int32(m.numberOfRecords)
		m.numberOfRecords++
		m.keys[idx] = key
	}

	cnt := m.keysRecordCount[idx]
	if recs := m.records[idx]; int(cnt) == len(recs) {
		size := initialRecordsPerKey
		if len(recs) > 0 {
			size = 2 * len(recs)
		}
		grown := make([]V, size)
		copy(grown, recs)
		m.records[idx] = grown
	}
	m.records[idx][cnt] = v
	m.keysRecordCount[idx]++

	if newEntry {
		rehashOnCollision := m.index.Overloaded(m.numberOfRecords)
		if !m.index.Insert(preHash, idx, rehashOnCollision) {
			m.rehash()
		}
	}
	return nil
}

func (m *JoinMap[K, V]) growArrays() error {
	size, err := grownSize(context.TODO(), len(m.keys))
	if err != nil {
		return err
	}

	keys := make([]K, size)
	copy(keys, m.keys)
	m.keys = keys

	counts := make([]int32, size)
	copy(counts, m.keysRecordCount)
	m.keysRecordCount = counts

	records := make([][]V, size)
	copy(records, m.records)
	m.records = records

	m.index.GrowEntries(size)
	return nil
}

func (m *JoinMap[K, V]) rehash() {
	m.index.Rebuild(m.numberOfRecords, func(idx int32) int64 {
		return prehash.Long(int64(m.keys[idx]))
	})
}

// GetIndex returns the entry index of key, or -1 if the key was never
// associated.
func (m *JoinMap[K, V]) GetIndex(key K, preHash int64) int {
	if key < 0 {
		return -1
	}
	return int(hashtable.Find(m.index, m.keys, key, preHash))
}

func (m *JoinMap[K, V]) RecordCount(idx int) int {
	return int(m.keysRecordCount[idx])
}

// Records returns the value tuples of entry idx in association order.
// The slice is valid until the next Associate or Reset.
func (m *JoinMap[K, V]) Records(idx int) []V {
	return m.records[idx][:m.keysRecordCount[idx]]
}

func (m *JoinMap[K, V]) Key(idx int) K {
	return m.keys[idx]
}

// Len is the number of distinct keys.
func (m *JoinMap[K, V]) Len() int {
	return m.numberOfRecords
}

// Reset empties the map and keeps every allocated array for reuse.
func (m *JoinMap[K, V]) Reset() {
	for i := 0; i < m.numberOfRecords; i++ {
		clear(m.records[i][:m.keysRecordCount[i]])
		m.keysRecordCount[i] = 0
	}
	clear(m.keys[:m.numberOfRecords])
	m.numberOfRecords = 0
	m.index.Reset()
}
