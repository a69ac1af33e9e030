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
	"math"
	"math/rand"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/objectio"
)

// Columns of a generated table.
const (
	colID = iota
	colRegion
	colAmount
	colDay
	colCode
	colName
)

var generatedSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "region", Type: arrow.PrimitiveTypes.Int64},
	{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
	{Name: "day", Type: arrow.FixedWidthTypes.Date32},
	{Name: "code", Type: &arrow.FixedSizeBinaryType{ByteWidth: 4}},
	{Name: "name", Type: arrow.BinaryTypes.String},
}, nil)

type generateOptions struct {
	rows      int
	keys      int
	batchSize int
	nullEvery int
	seed      int64
}

func generateCommand(cfgFile *string) *cobra.Command {
	opts := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <arrow-file>",
		Short: "Write a table of random rows",
		Long: "Write an arrow file with columns id INT, region BIGINT, amount DOUBLE, " +
			"day DATE, code CHAR(4) and name VARCHAR",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(*cfgFile)
			if err != nil {
				return err
			}
			defer e.close()
			batches, err := generate(cmd.Context(), e, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows in %d batches to %s\n", opts.rows, batches, args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.rows, "rows", 100000, "number of rows")
	cmd.Flags().IntVar(&opts.keys, "keys", 1000, "number of distinct ids")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 4096, "rows per record batch")
	cmd.Flags().IntVar(&opts.nullEvery, "null-every", 100, "make every n-th id null, 0 for none")
	cmd.Flags().Int64Var(&opts.seed, "seed", 1, "random seed")
	return cmd
}

func generate(ctx context.Context, e *env, path string, opts generateOptions) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.batchSize < 1 || opts.batchSize > types.VectorLength {
		return 0, moerr.NewInvalidArg(ctx, "batch size", opts.batchSize)
	}
	if opts.keys < 1 || opts.rows < 0 {
		return 0, moerr.NewInvalidArg(ctx, "rows and keys", fmt.Sprintf("%d/%d", opts.rows, opts.keys))
	}

	w, err := objectio.NewTableWriter(ctx, path, generatedSchema, e.mem)
	if err != nil {
		return 0, err
	}
	rnd := rand.New(rand.NewSource(opts.seed))
	b := array.NewRecordBuilder(e.mem, generatedSchema)
	defer b.Release()

	for start := 0; start < opts.rows; start += opts.batchSize {
		end := min(start+opts.batchSize, opts.rows)
		for i := start; i < end; i++ {
			id := int32(rnd.Intn(opts.keys))
			if opts.nullEvery > 0 && i%opts.nullEvery == opts.nullEvery-1 {
				b.Field(colID).(*array.Int32Builder).AppendNull()
			} else {
				b.Field(colID).(*array.Int32Builder).Append(id)
			}
			b.Field(colRegion).(*array.Int64Builder).Append(int64(i % 7))
			b.Field(colAmount).(*array.Float64Builder).Append(math.Round(rnd.Float64()*10000) / 100)
			b.Field(colDay).(*array.Date32Builder).Append(arrow.Date32(18000 + i%365))
			b.Field(colCode).(*array.FixedSizeBinaryBuilder).Append([]byte(fmt.Sprintf("C%03d", i%50)))
			b.Field(colName).(*array.StringBuilder).Append(fmt.Sprintf("name-%d", id))
		}
		rec := b.NewRecord()
		err = w.Write(ctx, rec)
		rec.Release()
		if err != nil {
			w.Close()
			return 0, err
		}
	}
	batches, _ := w.Stats()
	return batches, w.Close()
}
