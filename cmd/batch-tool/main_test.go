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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
)

func run(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func generateFile(t *testing.T, dir string) string {
	path := filepath.Join(dir, "orders.arrow")
	out, err := run(t, "generate", path, "--rows", "5000", "--keys", "50", "--batch-size", "1000")
	require.NoError(t, err)
	require.Contains(t, out, "wrote 5000 rows in 5 batches")
	return path
}

func TestAggregate(t *testing.T) {
	path := generateFile(t, t.TempDir())

	out, err := run(t, "aggregate", path, "--key", "1", "--value", "2", "--limit", "0")
	require.NoError(t, err)
	require.Contains(t, out, "key\tsum\tcount\tavg")
	require.Contains(t, out, "groups: 7 in 1 output batches")
	lines := strings.Split(out, "\n")
	require.True(t, strings.HasPrefix(lines[1], "0\t"))
	require.True(t, strings.HasSuffix(strings.Split(lines[1], "\t")[2], "715"))
	require.True(t, strings.HasPrefix(lines[7], "6\t"))

	out, err = run(t, "aggregate", path, "--key", "4", "--value", "1", "--limit", "3")
	require.NoError(t, err)
	require.Contains(t, out, "groups: 50")
	require.Contains(t, out, "C000\t")
	require.Contains(t, out, "... 47 more")

	out, err = run(t, "aggregate", path, "--key", "5", "--value", "0")
	require.NoError(t, err)
	require.Contains(t, out, "groups: 50")

	_, err = run(t, "aggregate", path, "--key", "0", "--value", "5")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported), "%v", err)

	_, err = run(t, "aggregate", path, "--key", "0", "--value", "9")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg), "%v", err)
}

func TestAggregateWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := generateFile(t, dir)
	cfg := filepath.Join(dir, "batchcore.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
[log]
level = "error"

[reader]
kind = "caching"

[buffer-pool]
policy = "direct"

[hashmap]
estimate-capacity = true
`), 0o644))

	out, err := run(t, "--cfg", cfg, "aggregate", path, "--key", "3", "--value", "2")
	require.NoError(t, err)
	require.Contains(t, out, "groups: 365")

	_, err = run(t, "--cfg", filepath.Join(dir, "missing.toml"), "aggregate", path)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestScan(t *testing.T) {
	path := generateFile(t, t.TempDir())

	out, err := run(t, "scan", path, "--where", "1", "--op", "ge", "--value", "3")
	require.NoError(t, err)
	require.Contains(t, out, "rows: 5000\nmatched: 2856\n")

	out, err = run(t, "scan", path, "--where", "4", "--op", "eq", "--value", "C007",
		"--sum", "2", "--times", "2", "--group", "0", "--limit", "0")
	require.NoError(t, err)
	require.Contains(t, out, "matched: 100\n")
	require.Contains(t, out, "sum: ")
	require.Contains(t, out, "column 0\tcount")

	_, err = run(t, "scan", path, "--op", "ne")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = run(t, "scan", path, "--where", "1", "--value", "x")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = run(t, "scan", path, "--where", "1", "--sum", "1", "--times", "2")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestJoin(t *testing.T) {
	dir := t.TempDir()
	path := generateFile(t, dir)

	out, err := run(t, "join", path, path, "--limit", "5")
	require.NoError(t, err)
	require.Contains(t, out, "key\trows")
	require.Contains(t, out, "build keys: 50")
	require.Contains(t, out, "... 45 more")

	_, err = run(t, "join", path, path, "--build-key", "2")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
	_, err = run(t, "join", path, path, "--probe-key", "1")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
	_, err = run(t, "join", path, filepath.Join(dir, "missing.arrow"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrFileNotFound))
}

func TestGenerateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.arrow")
	_, err := run(t, "generate", path, "--batch-size", "20000")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = run(t, "generate", path, "--keys", "0")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
}

func TestResultOrder(t *testing.T) {
	res := newResult("k", "v")
	res.add(3, "", "3", "c")
	res.add(1, "", "1", "a")
	res.add(2, "b", "2b", "x")
	res.add(2, "a", "2a", "y")
	var out bytes.Buffer
	res.print(&out, 3)
	require.Equal(t, "k\tv\n1\ta\n2a\ty\n2b\tx\n... 1 more\n", out.String())
}
