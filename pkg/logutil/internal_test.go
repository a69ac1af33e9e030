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

package logutil

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/batchcore/pkg/common/moerr"
)

func resetLogger() {
	SetupMOLogger(&LogConfig{Level: zapcore.InfoLevel.String(), Format: "console"})
}

func TestLogConfigFromToml(t *testing.T) {
	var cfg LogConfig
	_, err := toml.Decode(`
level = "warn"
format = "json"
filename = "/var/log/batch-tool.log"
max-size = 64
max-days = 7
max-backups = 3
stacktrace-level = "error"
`, &cfg)
	require.NoError(t, err)
	require.Equal(t, LogConfig{
		Level:           "warn",
		Format:          "json",
		Filename:        "/var/log/batch-tool.log",
		MaxSize:         64,
		MaxDays:         7,
		MaxBackups:      3,
		StacktraceLevel: "error",
	}, cfg)
	require.Equal(t, zapcore.WarnLevel, cfg.getLevel().Level())
	require.Equal(t, zapcore.ErrorLevel, cfg.getStacktraceLevel())
}

func TestLogConfigLevels(t *testing.T) {
	cases := []struct {
		level, stacktrace string
		want, wantStack   zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel, wantStack: zapcore.PanicLevel},
		{level: "info", stacktrace: "warn", want: zapcore.InfoLevel, wantStack: zapcore.WarnLevel},
		{level: "ERROR", stacktrace: "fatal", want: zapcore.ErrorLevel, wantStack: zapcore.FatalLevel},
	}
	for _, c := range cases {
		cfg := &LogConfig{Level: c.level, StacktraceLevel: c.stacktrace}
		require.Equal(t, c.want, cfg.getLevel().Level(), c.level)
		require.Equal(t, c.wantStack, cfg.getStacktraceLevel(), c.level)
		require.Len(t, cfg.getOptions(), 2)
	}

	require.Panics(t, func() { (&LogConfig{Level: "loud"}).getLevel() })
	require.Panics(t, func() { (&LogConfig{StacktraceLevel: "never"}).getStacktraceLevel() })
}

func TestLoggerEncoder(t *testing.T) {
	defer leaktest.AfterTest(t)()
	entry := zapcore.Entry{Level: zapcore.WarnLevel, Message: "batch dropped"}
	fields := []zap.Field{zap.Int("rows", 12)}

	buf, err := getLoggerEncoder("console").EncodeEntry(entry, fields)
	require.NoError(t, err)
	require.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d{6} [+-]\d{4} WARN batch dropped \{"rows": 12\}`, buf.String())

	for _, format := range []string{"json", ""} {
		buf, err = getLoggerEncoder(format).EncodeEntry(entry, fields)
		require.NoError(t, err)
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "WARN", line["level"])
		require.Equal(t, "batch dropped", line["msg"])
		require.Equal(t, float64(12), line["rows"])
	}

	defer func() {
		err := recover()
		require.Equal(t, moerr.NewInternalError(context.TODO(), "unsupported log format: %s", "xml"), err)
	}()
	getLoggerEncoder("xml")
}

func TestSetupMOLoggerRejectsDirectory(t *testing.T) {
	defer leaktest.AfterTest(t)()
	require.PanicsWithValue(t, "log file can't be a directory", func() {
		SetupMOLogger(&LogConfig{Level: "info", Format: "json", Filename: t.TempDir()})
	})
}

func TestSetupMOLoggerConsole(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer resetLogger()
	for _, filename := range []string{"", "console"} {
		cfg := &LogConfig{Level: "debug", Format: "console", Filename: filename}
		require.Len(t, cfg.getSinks(), 1)
		SetupMOLogger(cfg)
		require.True(t, GetGlobalLogger().Core().Enabled(zapcore.DebugLevel))
		// console output never rotates, so the size stays unset
		require.Zero(t, cfg.MaxSize)
	}
}

func TestSetupMOLoggerFile(t *testing.T) {
	defer resetLogger()
	filename := filepath.Join(t.TempDir(), "batch-tool.log")
	cfg := &LogConfig{
		Level:      "info",
		Format:     "json",
		Filename:   filename,
		MaxDays:    1,
		MaxBackups: 2,
	}
	SetupMOLogger(cfg)
	require.Equal(t, 512, cfg.MaxSize)
	require.False(t, GetGlobalLogger().Core().Enabled(zapcore.DebugLevel))

	Debug("not written")
	Info("batch loaded", zap.Int("rows", 3))
	Warnf("queue %s", "full")
	require.NoError(t, GetGlobalLogger().Sync())

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	var msgs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		require.Contains(t, line["caller"], "logutil/")
		msgs = append(msgs, line["msg"].(string))
	}
	require.NoError(t, sc.Err())
	require.Equal(t, []string{"batch loaded", "queue full"}, msgs)
}
