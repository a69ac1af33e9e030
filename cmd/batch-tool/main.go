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
	"os"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/matrixorigin/batchcore/pkg/common/mpool"
	"github.com/matrixorigin/batchcore/pkg/config"
	"github.com/matrixorigin/batchcore/pkg/logutil"
	"github.com/matrixorigin/batchcore/pkg/objectio"
	"github.com/matrixorigin/batchcore/pkg/vectorize/simd"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:           "batch-tool",
		Short:         "Run batch operators over arrow files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "cfg", "", "toml configuration, defaults are used when empty")

	cmd.AddCommand(
		generateCommand(&cfgFile),
		scanCommand(&cfgFile),
		aggregateCommand(&cfgFile),
		joinCommand(&cfgFile),
	)
	return cmd
}

// env is what every command needs to run operators.
type env struct {
	cfg       *config.Config
	pool      mpool.AllocationManager
	producers *ants.Pool
	mem       memory.Allocator
}

func newEnv(cfgFile string) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile == "" {
		cfg, err = config.ParseFromString("")
	} else {
		cfg, err = config.ParseFromFile(cfgFile)
	}
	if err != nil {
		return nil, err
	}
	logutil.SetupMOLogger(&cfg.Log)
	simd.Configure(cfg.Batch.DisableSIMD)

	pool, err := mpool.NewAllocationManager(cfg)
	if err != nil {
		return nil, err
	}
	producers, err := objectio.NewProducerPool(cfg.Reader.ProducerPoolSize)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:       cfg,
		pool:      pool,
		producers: producers,
		mem:       memory.NewGoAllocator(),
	}, nil
}

// open opens path materializing only cols.
func (e *env) open(ctx context.Context, path string, cols ...int) (objectio.TableReader, error) {
	params := e.cfg.Reader
	params.Projection = nil
	for _, col := range cols {
		if !slices.Contains(params.Projection, col) {
			params.Projection = append(params.Projection, col)
		}
	}
	return objectio.Open(ctx, path, params, e.mem, e.producers)
}

func (e *env) close() {
	e.producers.Release()
}
