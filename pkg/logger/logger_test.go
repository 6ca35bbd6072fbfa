package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo}).With(Component("gateway"))

	l.Debug("dropped")
	l.Info("module created", ModuleCode("ALG1"), SemesterNumber(2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "module created", entry.Message)
	assert.Equal(t, "gateway", entry.Fields["component"])
	assert.Equal(t, "ALG1", entry.Fields["module_code"])
	assert.Equal(t, float64(2), entry.Fields["semester"])
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelDebug, Format: FormatText})

	l.Warn("exam result rejected", ExamResultID(7), ModuleCode("DB"))

	line := buf.String()
	assert.Contains(t, line, "WARN  exam result rejected")
	assert.True(t, strings.HasSuffix(line, "exam_result_id=7 module_code=DB\n"), line)
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, "UNKNOWN", Level(9).String())
	assert.Equal(t, FormatText, ParseFormat(" TEXT "))
	assert.Equal(t, FormatJSON, ParseFormat(""))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelInfo})

	assert.Same(t, base, FromContext(context.Background(), base))

	ctx := WithContext(context.Background(), base.WithRequestID("req-1"))
	FromContext(ctx, nil).Info("module deleted", ModuleCode("ALG1"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry.Fields[RequestIDKey])
	assert.Equal(t, "ALG1", entry.Fields["module_code"])
}

func TestLogger_ChildrenShareOutput(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelDebug})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		child := base.With(SemesterNumber(i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				child.Debug("tick")
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 400)
	for _, line := range lines {
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, Level: LevelInfo, AddCaller: true}).Error("boom", Err(nil))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.True(t, strings.HasPrefix(entry.Caller, "logger_test.go:"), entry.Caller)
	assert.Contains(t, entry.Fields, "error")
	assert.Nil(t, entry.Fields["error"])
}
