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


package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/hashmap"
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/logutil"
	"github.com/matrixorigin/batchcore/pkg/objectio"
	"github.com/matrixorigin/batchcore/pkg/sql/colexec/group"
)

type aggregateOptions struct {
	key   int
	value int
	limit int
}

type aggResult struct {
	groups  *result
	batches int
}

type avg = hashmap.SumCount[float64]

func aggregateCommand(cfgFile *string) *cobra.Command {
	opts := aggregateOptions{}
	cmd := &cobra.Command{
		Use:   "aggregate <arrow-file>",
		Short: "Sum, count and average a column per key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(*cfgFile)
			if err != nil {
				return err
			}
			defer e.close()
			res, err := aggregate(cmd.Context(), e, args[0], opts)
			if err != nil {
				return err
			}
			res.groups.print(cmd.OutOrStdout(), opts.limit)
			fmt.Fprintf(cmd.OutOrStdout(), "groups: %d in %d output batches\n", res.groups.len(), res.batches)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.key, "key", colID, "grouping column")
	cmd.Flags().IntVar(&opts.value, "value", colAmount, "aggregated numeric column")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "groups printed, 0 for all")
	return cmd
}

func aggregate(ctx context.Context, e *env, path string, opts aggregateOptions) (*aggResult, error) {
	r, err := e.open(ctx, path, opts.key, opts.value)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// the first batch tells the key type
	ok, err := r.LoadNextBatch(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &aggResult{groups: newResult("key", "sum", "count", "avg")}, nil
	}
	kv, err := column(ctx, r.GetVector(opts.key), opts.key)
	if err != nil {
		return nil, err
	}
	vv, err := column(ctx, r.GetVector(opts.value), opts.value)
	if err != nil {
		return nil, err
	}
	if _, err = floats(ctx, vv, make([]float64, vv.Length())); err != nil {
		return nil, err
	}
	typ := *kv.GetType()

	capacity := e.cfg.HashMap.InitialCapacity
	if e.cfg.HashMap.EstimateCapacity {
		if capacity, err = estimateCapacity(ctx, r, opts.key, capacity); err != nil {
			return nil, err
		}
	}
	if err = r.Reset(); err != nil {
		return nil, err
	}

	switch typ.Oid {
	case types.T_int32, types.T_date32:
		return runAggregate(ctx, e, r, opts, capacity,
			func(v *vector.Vector, row int64) hashmap.IntKey {
				return hashmap.IntKey(vector.MustFixedCol[int32](v)[row])
			},
			func(k hashmap.IntKey) (float64, string, string) {
				return float64(k), "", strconv.Itoa(int(k))
			})
	case types.T_int64:
		return runAggregate(ctx, e, r, opts, capacity,
			func(v *vector.Vector, row int64) hashmap.LongKey {
				return hashmap.LongKey(vector.MustFixedCol[int64](v)[row])
			},
			func(k hashmap.LongKey) (float64, string, string) {
				return float64(k), "", strconv.FormatInt(int64(k), 10)
			})
	case types.T_float64:
		return runAggregate(ctx, e, r, opts, capacity,
			func(v *vector.Vector, row int64) hashmap.DoubleKey {
				return hashmap.DoubleKey(vector.MustFixedCol[float64](v)[row])
			},
			func(k hashmap.DoubleKey) (float64, string, string) {
				return float64(k), "", strconv.FormatFloat(float64(k), 'g', -1, 64)
			})
	case types.T_fixed_bytes:
		return runAggregate(ctx, e, r, opts, capacity,
			func(v *vector.Vector, row int64) hashmap.FixedKey {
				return hashmap.FixedKey(v.GetBytes(int(row)))
			},
			func(k hashmap.FixedKey) (float64, string, string) {
				return 0, string(k), string(k)
			})
	case types.T_varchar:
		return runAggregate(ctx, e, r, opts, capacity,
			func(v *vector.Vector, row int64) hashmap.VarcharKey {
				return hashmap.VarcharKey(v.GetString(int(row)))
			},
			func(k hashmap.VarcharKey) (float64, string, string) {
				return 0, string(k), string(k)
			})
	}
	return nil, moerr.NewNotSupported(ctx, "grouping by %s", typ)
}

// estimateCapacity feeds the key column of the rest of r into a
// cardinality sketch. The current batch is the first one fed.
func estimateCapacity(ctx context.Context, r objectio.TableReader, key int, capacity int) (int, error) {
	s := hashmap.NewSketch()
	for {
		if err := s.InsertVec(ctx, r.GetVector(key)); err != nil {
			return 0, err
		}
		ok, err := r.LoadNextBatch(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
	}
	estimated := hashmap.EstimateCapacity(s)
	logutil.Debug("estimated aggregation capacity",
		zap.Uint64("keys", s.Estimate()),
		zap.Int("capacity", estimated))
	return max(capacity, estimated), nil
}

func runAggregate[K hashmap.Key](
	ctx context.Context,
	e *env,
	r objectio.TableReader,
	opts aggregateOptions,
	capacity int,
	keyAt func(v *vector.Vector, row int64) K,
	describe func(K) (float64, string, string),
) (*aggResult, error) {
	defer e.pool.PerformMaintenance()
	m, err := hashmap.NewAggregationMap[K, avg](capacity, hashmap.CombineSumCount[float64])
	if err != nil {
		return nil, err
	}
	err = group.Fold(ctx, r, []int{opts.key}, m, e.pool,
		func(bat *batch.Batch, row int64) (K, avg) {
			delta := avg{Count: 1}
			if vv := bat.GetVector(int32(opts.value)); !vv.IsNull(uint64(row)) {
				delta.Sum = floatAt(vv, row)
			}
			return keyAt(bat.GetVector(int32(opts.key)), row), delta
		})
	if err != nil {
		return nil, err
	}

	res := &aggResult{groups: newResult("key", "sum", "count", "avg")}
	var state group.DrainState
	for done := false; !done; res.batches++ {
		_, done = group.Drain(m, &state, func(k K, v avg) {
			num, str, text := describe(k)
			res.groups.add(num, str, text,
				strconv.FormatFloat(v.Sum, 'f', 2, 64),
				strconv.FormatInt(v.Count, 10),
				strconv.FormatFloat(v.Sum/float64(v.Count), 'f', 2, 64))
		})
	}
	return res, nil
}

func floatAt(v *vector.Vector, row int64) float64 {
	switch v.GetType().Oid {
	case types.T_int32, types.T_date32:
		return float64(vector.MustFixedCol[int32](v)[row])
	case types.T_int64:
		return float64(vector.MustFixedCol[int64](v)[row])
	}
	return vector.MustFixedCol[float64](v)[row]
}
