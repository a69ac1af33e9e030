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
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/container/vector"
	"github.com/matrixorigin/batchcore/pkg/vectorize/arith"
	"github.com/matrixorigin/batchcore/pkg/vectorize/filter"
	"github.com/matrixorigin/batchcore/pkg/vectorize/prehash"
)

var ops = map[string]filter.Op{
	"lt": filter.OpLt,
	"le": filter.OpLe,
	"gt": filter.OpGt,
	"ge": filter.OpGe,
	"eq": filter.OpEq,
}

type scanOptions struct {
	where int
	op    string
	value string
	sum   int
	times int
	group int
	limit int
}

type scanResult struct {
	rows    int
	matched int
	total   float64
	groups  *result
}

func scanCommand(cfgFile *string) *cobra.Command {
	opts := scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan <arrow-file>",
		Short: "Filter a table and sum the qualifying rows",
		Long: "Select the rows where column --where compares to --value with --op " +
			"(lt, le, gt, ge, eq), sum column --sum over them, optionally multiplied " +
			"by column --times, and count them per value of the INT column --group",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(*cfgFile)
			if err != nil {
				return err
			}
			defer e.close()
			res, err := scan(cmd.Context(), e, args[0], opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rows: %d\nmatched: %d\n", res.rows, res.matched)
			if opts.sum >= 0 {
				fmt.Fprintf(out, "sum: %.2f\n", res.total)
			}
			if res.groups != nil {
				res.groups.print(out, opts.limit)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.where, "where", 0, "filtered column")
	cmd.Flags().StringVar(&opts.op, "op", "ge", "comparison")
	cmd.Flags().StringVar(&opts.value, "value", "0", "constant compared to")
	cmd.Flags().IntVar(&opts.sum, "sum", -1, "summed column, -1 for none")
	cmd.Flags().IntVar(&opts.times, "times", -1, "DOUBLE column multiplied into --sum, -1 for none")
	cmd.Flags().IntVar(&opts.group, "group", -1, "INT column to count qualifying rows by, -1 for none")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "groups printed, 0 for all")
	return cmd
}

func scan(ctx context.Context, e *env, path string, opts scanOptions) (*scanResult, error) {
	op, ok := ops[opts.op]
	if !ok {
		return nil, moerr.NewInvalidArg(ctx, "comparison", opts.op)
	}
	if opts.times >= 0 && opts.sum < 0 {
		return nil, moerr.NewInvalidArg(ctx, "times without sum", opts.times)
	}
	cols := []int{opts.where}
	for _, col := range []int{opts.sum, opts.times, opts.group} {
		if col >= 0 {
			cols = append(cols, col)
		}
	}
	r, err := e.open(ctx, path, cols...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	sel := e.pool.GetLongVector()
	products := e.pool.GetDoubleVector()
	buf := e.pool.GetDoubleVector()
	defer func() {
		e.pool.ReleaseLongVector(sel)
		e.pool.ReleaseDoubleVector(products)
		e.pool.ReleaseDoubleVector(buf)
	}()
	res := &scanResult{}
	var groups *hashmap.AggregationMap[hashmap.IntKey, int64]
	if opts.group >= 0 {
		groups = e.pool.GetMap()
		defer e.pool.ReleaseMap(groups)
	}

	var constant any
	for {
		ok, err := r.LoadNextBatch(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		vec, err := column(ctx, r.GetVector(opts.where), opts.where)
		if err != nil {
			return nil, err
		}
		if constant == nil {
			if constant, err = parseConstant(ctx, vec.GetType(), opts.value); err != nil {
				return nil, err
			}
		}
		rows, err := filter.Compare(ctx, op, vec, constant, sel)
		if err != nil {
			return nil, err
		}
		res.rows += vec.Length()
		res.matched += len(rows)

		if opts.sum >= 0 {
			var tv *vector.Vector
			if opts.times >= 0 {
				tv = r.GetVector(opts.times)
			}
			total, err := sumRows(ctx, r.GetVector(opts.sum), tv, opts, rows, products, buf)
			if err != nil {
				return nil, err
			}
			res.total += total
		}
		if groups != nil {
			if err = countRows(ctx, groups, r.GetVector(opts.group), opts.group, rows); err != nil {
				return nil, err
			}
		}
	}
	if groups != nil {
		res.groups = newResult(fmt.Sprintf("column %d", opts.group), "count")
		groups.Range(func(k hashmap.IntKey, n int64) bool {
			res.groups.add(float64(k), "", strconv.Itoa(int(k)), strconv.FormatInt(n, 10))
			return true
		})
	}
	e.pool.PerformMaintenance()
	return res, nil
}

func sumRows(
	ctx context.Context,
	sv, tv *vector.Vector,
	opts scanOptions,
	rows []int64,
	products, buf []float64,
) (float64, error) {
	sv, err := column(ctx, sv, opts.sum)
	if err != nil {
		return 0, err
	}
	var vals []float64
	if opts.times >= 0 {
		if tv, err = column(ctx, tv, opts.times); err != nil {
			return 0, err
		}
		if sv.GetType().Oid != types.T_float64 || tv.GetType().Oid != types.T_float64 {
			return 0, moerr.NewNotSupported(ctx, "product of %s and %s", sv.GetType(), tv.GetType())
		}
		vals = arith.MulVecSels[float64](sv, tv, products, rows)
	} else if vals, err = floats(ctx, sv, buf); err != nil {
		return 0, err
	}

	var total float64
	for _, row := range rows {
		if sv.IsNull(uint64(row)) || (tv != nil && tv.IsNull(uint64(row))) {
			continue
		}
		total += vals[row]
	}
	return total, nil
}

func countRows(
	ctx context.Context,
	groups *hashmap.AggregationMap[hashmap.IntKey, int64],
	gv *vector.Vector,
	col int,
	rows []int64,
) error {
	gv, err := column(ctx, gv, col)
	if err != nil {
		return err
	}
	if gv.GetType().Oid != types.T_int32 {
		return moerr.NewNotSupported(ctx, "grouping by %s", gv.GetType())
	}
	keys := vector.MustFixedCol[int32](gv)
	for _, row := range rows {
		k := hashmap.IntKey(keys[row])
		if gv.IsNull(uint64(row)) || !k.Valid() {
			continue
		}
		if err = groups.IncrementForKey(k, prehash.Int(keys[row]), 1); err != nil {
			return err
		}
	}
	return nil
}

func parseConstant(ctx context.Context, typ *types.Type, s string) (any, error) {
	switch typ.Oid {
	case types.T_int32, types.T_date32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, moerr.NewInvalidArg(ctx, "constant", s)
		}
		return int32(v), nil
	case types.T_int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, moerr.NewInvalidArg(ctx, "constant", s)
		}
		return v, nil
	case types.T_float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, moerr.NewInvalidArg(ctx, "constant", s)
		}
		return v, nil
	case types.T_fixed_bytes:
		return []byte(s), nil
	}
	return nil, moerr.NewNotSupported(ctx, "comparing %s", typ)
}
