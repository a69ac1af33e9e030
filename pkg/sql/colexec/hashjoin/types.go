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


package hashjoin

import (
	"context"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

// ProbeState is the resume point of a probe over one key vector.
type ProbeState struct {
	// Pos is the position in the selection of the next row to probe.
	Pos int
	// Offset is the number of records of the row at Pos already emitted,
	// non zero only when a key owns more records than fit in one output
	// batch.
	Offset int
}

func (s *ProbeState) Reset() {
	s.Pos = 0
	s.Offset = 0
}

// Keys returns the values of a join key column as K.
func Keys[K types.Int](ctx context.Context, v *vector.Vector) ([]K, error) {
	var k K
	switch any(k).(type) {
	case int32:
		if oid := v.GetType().Oid; oid == types.T_int32 || oid == types.T_date32 {
			return any(vector.MustFixedCol[int32](v)).([]K), nil
		}
	case int64:
		if v.GetType().Oid == types.T_int64 {
			return any(vector.MustFixedCol[int64](v)).([]K), nil
		}
	}
	return nil, moerr.NewNotSupported(ctx, "%s join key read as %T", v.GetType(), k)
}
