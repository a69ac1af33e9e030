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

	"github.com/axiomhq/hyperloglog"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/nulls"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

const minCapacity = 2

// CapacityFor rounds an expected number of distinct keys up to a valid
// map capacity.
func CapacityFor(n int) int {
	capacity := minCapacity
	for capacity < n && capacity < maxEntries/2 {
		capacity <<= 1
	}
	return capacity
}

// Sketch estimates the number of distinct keys of one or more key
// columns before a map is built from them.
type Sketch struct {
	hll *hyperloglog.Sketch
}

func NewSketch() *Sketch {
	return &Sketch{hll: hyperloglog.New()}
}

func (s *Sketch) Insert(key []byte) {
	s.hll.Insert(key)
}

// InsertVec adds every non-null row of v.
func (s *Sketch) InsertVec(ctx context.Context, v *vector.Vector) error {
	nsp := v.GetNulls()
	switch typ := v.GetType(); typ.Oid {
	case types.T_int32, types.T_date32:
		col := vector.MustFixedCol[int32](v)
		for i := range col {
			if !nulls.Contains(nsp, uint64(i)) {
				s.hll.Insert(types.EncodeFixed(&col[i]))
			}
		}
	case types.T_int64:
		col := vector.MustFixedCol[int64](v)
		for i := range col {
			if !nulls.Contains(nsp, uint64(i)) {
				s.hll.Insert(types.EncodeFixed(&col[i]))
			}
		}
	case types.T_float64:
		col := vector.MustFixedCol[float64](v)
		for i := range col {
			if !nulls.Contains(nsp, uint64(i)) {
				s.hll.Insert(types.EncodeFixed(&col[i]))
			}
		}
	case types.T_fixed_bytes, types.T_varchar:
		for i := 0; i < v.Length(); i++ {
			if !nulls.Contains(nsp, uint64(i)) {
				s.hll.Insert(v.GetBytes(i))
			}
		}
	default:
		return moerr.NewNotSupported(ctx, "cardinality of %s", typ)
	}
	return nil
}

func (s *Sketch) Estimate() uint64 {
	return s.hll.Estimate()
}

// EstimateCapacity sizes a map for the keys seen by s.
func EstimateCapacity(s *Sketch) int {
	return CapacityFor(int(s.Estimate()))
}
