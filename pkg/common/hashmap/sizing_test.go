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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/container/nulls"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
)

func TestCapacityFor(t *testing.T) {
	require.Equal(t, 2, CapacityFor(0))
	require.Equal(t, 2, CapacityFor(2))
	require.Equal(t, 4, CapacityFor(3))
	require.Equal(t, 1024, CapacityFor(1024))
	require.Equal(t, 2048, CapacityFor(1025))
}

func TestEstimateCapacity(t *testing.T) {
	keys := make([]int64, 3000)
	for i := range keys {
		keys[i] = int64(i % 1000)
	}
	v := vector.NewFromSlice(types.New(types.T_int64, 0), keys)

	s := NewSketch()
	require.NoError(t, s.InsertVec(context.Background(), v))
	require.InDelta(t, 1000, float64(s.Estimate()), 50)
	require.Equal(t, 1024, EstimateCapacity(s))
}

func TestSketchSkipsNulls(t *testing.T) {
	v := vector.NewFixedBytes(1, []byte("abcd"))
	v.SetNulls(nulls.Build(0, 1, 2))

	s := NewSketch()
	require.NoError(t, s.InsertVec(context.Background(), v))
	require.Equal(t, uint64(1), s.Estimate())
}
