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

	"github.com/matrixorigin/batchcore/pkg/common/hashmap"
	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/objectio"
	"github.com/matrixorigin/batchcore/pkg/sql/colexec/hashjoin"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
	"github.com/matrixorigin/batchcore/pkg/vectorize/sels"
)

type joinOptions struct {
	buildKey int
	probeKey int
	limit    int
}

type joinResult struct {
	rows      int
	batches   int
	buildKeys int
	matches   *result
}

func joinCommand(cfgFile *string) *cobra.Command {
	opts := joinOptions{}
	cmd := &cobra.Command{
		Use:   "join <build-file> <probe-file>",
		Short: "Inner join two tables on an INT or BIGINT key",
		Long: "Build a join map from the key column of the first table and probe it " +
			"with the second, reporting the joined rows per key",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(*cfgFile)
			if err != nil {
				return err
			}
			defer e.close()
			res, err := join(cmd.Context(), e, args[0], args[1], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			res.matches.print(out, opts.limit)
			fmt.Fprintf(out, "build keys: %d\njoined rows: %d in %d output batches\n",
				res.buildKeys, res.rows, res.batches)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.buildKey, "build-key", colID, "key column of the build table")
	cmd.Flags().IntVar(&opts.probeKey, "probe-key", colID, "key column of the probe table")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "keys printed, 0 for all")
	return cmd
}

func join(ctx context.Context, e *env, buildPath, probePath string, opts joinOptions) (*joinResult, error) {
	br, err := e.open(ctx, buildPath, opts.buildKey)
	if err != nil {
		return nil, err
	}
	defer br.Close()
	pr, err := e.open(ctx, probePath, opts.probeKey)
	if err != nil {
		return nil, err
	}
	defer pr.Close()

	ok, err := br.LoadNextBatch(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &joinResult{matches: newResult("key", "rows")}, nil
	}
	kv, err := column(ctx, br.GetVector(opts.buildKey), opts.buildKey)
	if err != nil {
		return nil, err
	}
	typ := *kv.GetType()
	if err = br.Reset(); err != nil {
		return nil, err
	}

	switch typ.Oid {
	case types.T_int32, types.T_date32:
		return runJoin[int32](ctx, e, br, pr, opts)
	case types.T_int64:
		return runJoin[int64](ctx, e, br, pr, opts)
	}
	return nil, moerr.NewNotSupported(ctx, "join key %s", typ)
}

func runJoin[K types.Int](
	ctx context.Context,
	e *env,
	br, pr objectio.TableReader,
	opts joinOptions,
) (*joinResult, error) {
	// build records are the ordinals of the build rows
	var (
		last     *batch.Batch
		base     int64
		lastRows int64
	)
	m, err := hashjoin.Build[K, int64](ctx, br, opts.buildKey, e.cfg.HashMap.InitialCapacity, e.pool,
		func(bat *batch.Batch, row int64) int64 {
			if bat != last {
				base += lastRows
				last, lastRows = bat, int64(bat.RowCount())
			}
			return base + row
		})
	if err != nil {
		return nil, err
	}

	counts, err := hashmap.NewAggregationMap[hashmap.LongKey, hashmap.Count](
		e.cfg.HashMap.InitialCapacity, hashmap.CombineCount)
	if err != nil {
		return nil, err
	}
	preHash := e.pool.GetLongVector()
	sel := e.pool.GetLongVector()
	defer func() {
		e.pool.ReleaseLongVector(preHash)
		e.pool.ReleaseLongVector(sel)
		e.pool.PerformMaintenance()
	}()

	res := &joinResult{buildKeys: m.Len()}
	for {
		ok, err := pr.LoadNextBatch(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		vec, err := column(ctx, pr.GetVector(opts.probeKey), opts.probeKey)
		if err != nil {
			return nil, err
		}
		keys, err := hashjoin.Keys[K](ctx, vec)
		if err != nil {
			return nil, err
		}
		prehash.Construct(preHash, keys, false, nil)
		rows := sels.DropNulls(vec.GetNulls(), sels.Seq(len(keys), sel), sel)

		var (
			state   hashjoin.ProbeState
			emitErr error
		)
		emit := func(row int64, _ int64) {
			k := int64(keys[row])
			if err := counts.IncrementForKey(hashmap.LongKey(k), prehash.Long(k), hashmap.Count{Count: 1}); err != nil && emitErr == nil {
				emitErr = err
			}
		}
		for done := false; !done; {
			var n int
			n, done = hashjoin.Probe(m, keys, preHash, rows, &state, emit)
			if n > 0 {
				res.rows += n
				res.batches++
			}
		}
		if emitErr != nil {
			return nil, emitErr
		}
	}

	res.matches = newResult("key", "rows")
	counts.Range(func(k hashmap.LongKey, v hashmap.Count) bool {
		res.matches.add(float64(k), "", strconv.FormatInt(int64(k), 10), strconv.FormatInt(v.Count, 10))
		return true
	})
	return res, nil
}
