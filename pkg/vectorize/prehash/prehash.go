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

// Package prehash computes the pre-hash values of key columns. A
// pre-hash is a 64-bit value per row that the hash maps mask down to a
// bucket; composite keys XOR the pre-hashes of their columns together.
package prehash

import (
	"math"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

// Universal hash (a*k + b) mod p with p the first prime above the
// uint32 range.
const (
	P int64 = 4294967459
	A int64 = 3044339450
	B int64 = 4157137050
)

func Int(k int32) int64 {
	return (A*int64(k) + B) % P
}

// Long uses wrapping int64 arithmetic, so it agrees with Int for every
// int32 key.
func Long(k int64) int64 {
	return (A*k + B) % P
}

// Float64 folds the IEEE 754 bits of k into 32 bits.
func Float64(k float64) int64 {
	bits := math.Float64bits(k)
	return int64(int32(uint32(bits ^ bits>>32)))
}

func Bytes(b []byte) int64 {
	var h int64
	for _, c := range b {
		h = h*31 ^ int64(int8(c))
	}
	if h < 0 {
		return -h
	}
	return h
}

func checkOut(n, out int) {
	if out < n {
		panic(moerr.NewSizeNotMatchNoCtx("pre-hash output"))
	}
}

// Construct writes the pre-hash of every key into out, or XORs it into
// out when extend is set. The lane-chunked kernel stages a*k+b in
// scratch when extending, so scratch must hold len(keys) values in that
// case. The reduction mod P happens once per key in both kernels.
func Construct[K types.Int](out []int64, keys []K, extend bool, scratch []int64) {
	checkOut(len(keys), len(out))
	if extend {
		checkOut(len(keys), len(scratch))
	}
	if simd.Enabled {
		constructSIMD(out, keys, extend, scratch)
		return
	}
	constructPure(out, keys, extend)
}

func constructPure[K types.Int](out []int64, keys []K, extend bool) {
	if extend {
		for i, k := range keys {
			out[i] ^= Long(int64(k))
		}
		return
	}
	for i, k := range keys {
		out[i] = Long(int64(k))
	}
}

func constructSIMD[K types.Int](out []int64, keys []K, extend bool, scratch []int64) {
	dst := out
	if extend {
		dst = scratch
	}
	n := len(keys)
	steps := simd.Steps(n)
	for s := 0; s < steps; s++ {
		base := s * simd.Lanes
		lane, wide := keys[base:base+simd.Lanes], dst[base:base+simd.Lanes]
		for l := range wide {
			wide[l] = A*int64(lane[l]) + B
		}
	}
	for i := steps * simd.Lanes; i < n; i++ {
		dst[i] = A*int64(keys[i]) + B
	}
	if extend {
		for i := 0; i < n; i++ {
			out[i] ^= scratch[i] % P
		}
		return
	}
	for i := 0; i < n; i++ {
		out[i] %= P
	}
}

// ConstructSels is Construct restricted to the rows of sels. Other
// slots of out are left untouched.
func ConstructSels[K types.Int](out []int64, keys []K, sels []int64, extend bool) {
	checkOut(len(keys), len(out))
	if simd.Enabled {
		var wide [simd.Lanes]int64
		steps := simd.Steps(len(sels))
		for s := 0; s < steps; s++ {
			lane := sels[s*simd.Lanes : (s+1)*simd.Lanes]
			for l, sel := range lane {
				wide[l] = A*int64(keys[sel]) + B
			}
			for l, sel := range lane {
				if extend {
					out[sel] ^= wide[l] % P
				} else {
					out[sel] = wide[l] % P
				}
			}
		}
		constructSelsPure(out, keys, sels[steps*simd.Lanes:], extend)
		return
	}
	constructSelsPure(out, keys, sels, extend)
}

func constructSelsPure[K types.Int](out []int64, keys []K, sels []int64, extend bool) {
	for _, sel := range sels {
		if extend {
			out[sel] ^= Long(int64(keys[sel]))
		} else {
			out[sel] = Long(int64(keys[sel]))
		}
	}
}

// ConstructMask is Construct restricted to the rows set in mask. scratch
// must hold len(keys) values.
func ConstructMask[K types.Int](out []int64, keys []K, mask []bool, extend bool, scratch []int64) {
	n := len(keys)
	checkOut(n, len(out))
	checkOut(n, len(mask))
	checkOut(n, len(scratch))
	if simd.Enabled {
		steps := simd.Steps(n)
		for s := 0; s < steps; s++ {
			base := s * simd.Lanes
			lane, wide := keys[base:base+simd.Lanes], scratch[base:base+simd.Lanes]
			for l := range wide {
				wide[l] = A*int64(lane[l]) + B
			}
		}
		for i := steps * simd.Lanes; i < n; i++ {
			scratch[i] = A*int64(keys[i]) + B
		}
		for i := 0; i < n; i++ {
			if !mask[i] {
				continue
			}
			if extend {
				out[i] ^= scratch[i] % P
			} else {
				out[i] = scratch[i] % P
			}
		}
		return
	}
	for i, k := range keys {
		if !mask[i] {
			continue
		}
		if extend {
			out[i] ^= Long(int64(k))
		} else {
			out[i] = Long(int64(k))
		}
	}
}
