package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Interface compliance (compile-time assertion)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*SchedLogger)(nil)
	_ Logger = (*ZapAdapter)(nil)
	_ Logger = (*LogrusAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(level LogLevel) (*SchedLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Output = buf
	cfg.Level = level
	cfg.AddSource = false
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSchedLogger_LevelsAndAttrs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l = l.WithComponent("cache").WithSession("s1", "127.0.0.1:9000").WithContext("node", "n1")

	l.Debug("hidden")
	l.Info("visible", "key", "value")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["msg"])
	assert.Equal(t, "cache", lines[0]["component"])
	assert.Equal(t, "s1", lines[0]["session_id"])
	assert.Equal(t, "127.0.0.1:9000", lines[0]["address"])
	assert.Equal(t, "n1", lines[0]["node"])
	assert.Equal(t, "value", lines[0]["key"])
}

func TestSchedLogger_WithDoesNotMutateParent(t *testing.T) {
	parent, buf := newBufferLogger(LogLevelDebug)
	_ = parent.WithContext("child_only", true)

	parent.Info("parent")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["child_only"]
	assert.False(t, ok)
}

func TestSchedLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.LogRemoteCall("manager", "add_subtasks", time.Millisecond, nil)
	l.LogBatch("update_subtask_priority", 3, time.Millisecond, errors.New("boom"))
	l.LogResolution("s1", "addr", time.Millisecond, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "Remote call completed", lines[0]["msg"])
	assert.Equal(t, "Batch failed", lines[1]["msg"])
	assert.EqualValues(t, 3, lines[1]["batch_size"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "Scheduling API resolved", lines[2]["msg"])
}

func TestSchedLogger_OddArgs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.Info("odd", "dangling")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestZapAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	l.Info("resolved", "session_id", "s1")
	l.Error("failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "resolved", entries[0].Message)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestLogrusAdapter(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := NewLogrusAdapter(base)

	l.Warn("slow batch", "batch_size", 4)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, "slow batch", entry.Message)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 4, entry.Data["batch_size"])
}
