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
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
)

type IntKey int32

func (k IntKey) PreHash() int64 { return prehash.Int(int32(k)) }

func (k IntKey) Valid() bool { return k >= 0 }

type LongKey int64

func (k LongKey) PreHash() int64 { return prehash.Long(int64(k)) }

func (k LongKey) Valid() bool { return k >= 0 }

type DoubleKey float64

func (k DoubleKey) PreHash() int64 { return prehash.Float64(float64(k)) }

func (k DoubleKey) Valid() bool { return k >= 0 }

// FixedKey holds a fixed width byte value. The bytes are copied into the
// key, so it stays valid after the batch it came from is released.
type FixedKey string

func (k FixedKey) PreHash() int64 { return prehash.Bytes([]byte(k)) }

func (k FixedKey) Valid() bool { return len(k) > 0 }

type VarcharKey string

func (k VarcharKey) PreHash() int64 { return prehash.Bytes([]byte(k)) }

func (k VarcharKey) Valid() bool { return len(k) > 0 }

// PairKey groups by two columns. Its pre-hash is the XOR of the column
// pre-hashes, which is what extending a pre-hash vector produces.
type PairKey[A, B Key] struct {
	First  A
	Second B
}

func (k PairKey[A, B]) PreHash() int64 { return k.First.PreHash() ^ k.Second.PreHash() }

func (k PairKey[A, B]) Valid() bool { return k.First.Valid() && k.Second.Valid() }

// Sum accumulates a running total.
type Sum[T types.Number] struct {
	Sum T
}

func CombineSum[T types.Number](acc *Sum[T], delta Sum[T]) {
	acc.Sum += delta.Sum
}

type Count struct {
	Count int64
}

func CombineCount(acc *Count, delta Count) {
	acc.Count += delta.Count
}

// SumCount accumulates a total and the number of folded rows, enough to
// derive an average.
type SumCount[T types.Number] struct {
	Sum   T
	Count int64
}

func CombineSumCount[T types.Number](acc *SumCount[T], delta SumCount[T]) {
	acc.Sum += delta.Sum
	acc.Count += delta.Count
}

func CombineInt64(acc *int64, delta int64) {
	*acc += delta
}
