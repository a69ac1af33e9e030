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

package prehash

import (
	"context"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

// ConstructVec pre-hashes the key column v into out. Extending a
// previous column's pre-hash builds a composite key.
func ConstructVec(ctx context.Context, out []int64, v *vector.Vector, extend bool, scratch []int64) error {
	switch typ := v.GetType(); typ.Oid {
	case types.T_int32, types.T_date32:
		Construct(out, vector.MustFixedCol[int32](v), extend, scratch)
	case types.T_int64:
		Construct(out, vector.MustFixedCol[int64](v), extend, scratch)
	case types.T_float64:
		ConstructFloat64(out, vector.MustFixedCol[float64](v), extend)
	case types.T_fixed_bytes:
		data, width := vector.MustFixedBytes(v)
		ConstructFixed(out, data, width, extend)
	case types.T_varchar:
		checkOut(v.Length(), len(out))
		for i := 0; i < v.Length(); i++ {
			set(out, i, Bytes(v.GetBytes(i)), extend)
		}
	default:
		return moerr.NewNotSupported(ctx, "pre-hash of %s", typ)
	}
	return nil
}
