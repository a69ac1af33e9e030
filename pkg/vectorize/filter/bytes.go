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

package filter

import (
	"bytes"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
)

// fixedRows compares each width byte row of data against c. The
// comparison is a memory compare per row even in the lane-chunked
// kernels.
type fixedRows struct {
	data  []byte
	width int
	c     []byte
}

func newFixedRows(data []byte, width int, c []byte) fixedRows {
	if width <= 0 || len(c) != width {
		panic(moerr.NewInvalidArgNoCtx("fixed bytes constant width", len(c)))
	}
	if len(data)%width != 0 {
		panic(moerr.NewSizeNotMatchNoCtx("fixed bytes column"))
	}
	return fixedRows{data: data, width: width, c: c}
}

func (r fixedRows) len() int { return len(r.data) / r.width }

func (r fixedRows) row(i int) bool {
	return bytes.Equal(r.data[i*r.width:(i+1)*r.width], r.c)
}

func EqFixed(data []byte, width int, c []byte, rs []int64) []int64 {
	return selectAll(newFixedRows(data, width, c), rs)
}

func EqFixedSels(data []byte, width int, c []byte, rs, sels []int64) []int64 {
	return selectSels(newFixedRows(data, width, c), rs, sels)
}

func EqFixedMask(data []byte, width int, c []byte, mask []bool) int {
	return selectMask(newFixedRows(data, width, c), mask)
}

func EqFixedMaskAnd(data []byte, width int, c []byte, mask []bool) int {
	return selectMaskAnd(newFixedRows(data, width, c), mask)
}
