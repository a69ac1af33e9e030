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

package hashtable

import (
	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/logutil"
)

const (
	kLoadFactorNumerator   = 3
	kLoadFactorDenominator = 4

	empty int32 = -1
)

// ChainedIndex maps pre-hash values onto dense entry indices. Bucket
// heads point at the first entry of a bucket and next links the rest of
// its collision chain. The owning map keeps the keys; the index never
// compares them itself.
type ChainedIndex struct {
	buckets []int32
	next    []int32
}

// NewChainedIndex creates an index of buckets heads and room for
// entries chain links. buckets must be a power of two.
func NewChainedIndex(buckets, entries int) *ChainedIndex {
	ht := &ChainedIndex{
		buckets: make([]int32, buckets),
		next:    make([]int32, entries),
	}
	fill(ht.buckets)
	fill(ht.next)
	return ht
}

func fill(xs []int32) {
	for i := range xs {
		xs[i] = empty
	}
}

func (ht *ChainedIndex) BucketCnt() int {
	return len(ht.buckets)
}

func (ht *ChainedIndex) bucket(preHash int64) int64 {
	return preHash & int64(len(ht.buckets)-1)
}

// Overloaded reports whether n entries cross the load factor of the
// current bucket array.
func (ht *ChainedIndex) Overloaded(n int) bool {
	return n > kLoadFactorNumerator*len(ht.buckets)/kLoadFactorDenominator
}

// Find walks the chain of preHash and returns the entry whose key
// equals key, or -1.
func Find[K comparable](ht *ChainedIndex, keys []K, key K, preHash int64) int32 {
	idx := ht.buckets[ht.bucket(preHash)]
	for idx != empty {
		if keys[idx] == key {
			return idx
		}
		idx = ht.next[idx]
	}
	return empty
}

// Insert links entry idx into the chain of preHash. A free bucket always
// takes the entry. On a collision Insert returns false without linking
// when rehashOnCollision is set, and the caller is expected to Rebuild.
func (ht *ChainedIndex) Insert(preHash int64, idx int32, rehashOnCollision bool) bool {
	b := ht.bucket(preHash)
	cur := ht.buckets[b]
	if cur == empty {
		ht.buckets[b] = idx
		return true
	}
	if rehashOnCollision {
		return false
	}
	for ht.next[cur] != empty {
		cur = ht.next[cur]
	}
	ht.next[cur] = idx
	return true
}

// GrowEntries extends the chain links to entries slots.
func (ht *ChainedIndex) GrowEntries(entries int) {
	if entries <= len(ht.next) {
		return
	}
	next := make([]int32, entries)
	copy(next, ht.next)
	fill(next[len(ht.next):])
	ht.next = next
}

// Rebuild grows the bucket array past n entries, doubles it once more and
// reinserts entries [0, n) with the pre-hash returned by preHash.
func (ht *ChainedIndex) Rebuild(n int, preHash func(idx int32) int64) {
	size := len(ht.buckets)
	for size <= n {
		size *= 2
	}
	size *= 2
	ht.buckets = make([]int32, size)
	fill(ht.buckets)
	fill(ht.next[:n])
	for i := 0; i < n; i++ {
		ht.Insert(preHash(int32(i)), int32(i), false)
	}
	logutil.Debug("hash index rebuilt", zap.Int("buckets", size), zap.Int("entries", n))
}

// Reset empties the index and keeps its arrays.
func (ht *ChainedIndex) Reset() {
	fill(ht.buckets)
	fill(ht.next)
}
