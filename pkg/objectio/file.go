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


package objectio

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"go.uber.org/zap"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
	"github.com/matrixorigin/batchcore/pkg/container/batch"
	"github.com/matrixorigin/batchcore/pkg/container/types"
	"github.com/matrixorigin/batchcore/pkg/logutil"
)

// tableFile is an open arrow file together with its validated projection.
type tableFile struct {
	path       string
	f          *os.File
	fr         *ipc.FileReader
	projection []int
}

func openTableFile(ctx context.Context, path string, opts Options) (*tableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, moerr.NewFileNotFound(ctx, path)
		}
		return nil, moerr.NewInvalidInput(ctx, "open %s", path).WithDetail(err.Error())
	}
	fr, err := ipc.NewFileReader(f, ipc.WithAllocator(opts.allocator()))
	if err != nil {
		f.Close()
		return nil, convertArrowError(ctx, path, err)
	}
	tf := &tableFile{
		path:       path,
		f:          f,
		fr:         fr,
		projection: opts.Projection,
	}
	if err = tf.checkSchema(ctx, fr.Schema()); err != nil {
		tf.close()
		return nil, err
	}
	logutil.Debug("open table file",
		zap.String("path", path),
		zap.Int("records", fr.NumRecords()),
		zap.Ints("projection", opts.Projection))
	return tf, nil
}

func (tf *tableFile) checkSchema(ctx context.Context, schema *arrow.Schema) error {
	check := func(col int) error {
		if col < 0 || col >= schema.NumFields() {
			return moerr.NewInvalidArg(ctx, "projected column", col)
		}
		_, err := types.FromArrow(ctx, schema.Field(col).Type)
		return err
	}
	if len(tf.projection) == 0 {
		for i := 0; i < schema.NumFields(); i++ {
			if err := check(i); err != nil {
				return err
			}
		}
		return nil
	}
	for _, col := range tf.projection {
		if err := check(col); err != nil {
			return err
		}
	}
	return nil
}

func (tf *tableFile) numRecords() int {
	return tf.fr.NumRecords()
}

// readBatch decodes the i-th record batch of the file.
func (tf *tableFile) readBatch(ctx context.Context, i int) (*batch.Batch, error) {
	rec, err := tf.fr.RecordAt(i)
	if err != nil {
		return nil, convertArrowError(ctx, tf.path, err)
	}
	defer rec.Release()
	return batch.NewFromRecord(ctx, rec, tf.projection)
}

// closeFile closes the descriptor only, which makes an in flight read fail.
func (tf *tableFile) closeFile() {
	if tf.f != nil {
		tf.f.Close()
	}
}

func (tf *tableFile) close() {
	tf.closeFile()
	if tf.fr != nil {
		tf.fr.Close()
		tf.fr = nil
	}
	tf.f = nil
}

func convertArrowError(ctx context.Context, path string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return moerr.NewUnexpectedEOF(ctx, path).WithDetail(err.Error())
	}
	return moerr.NewInvalidInput(ctx, "read arrow file %s", path).WithDetail(err.Error())
}
