package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(buf *bytes.Buffer, min Level) writerLogger {
	return writerLogger{
		mu:  &sync.Mutex{},
		w:   buf,
		min: min,
		now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestWriterLoggerFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelDebug)

	l.Info("tool finished", Fields{"tool": "calculator"})
	l.Debug("plain", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `2026-01-02T03:04:05Z INFO  tool finished obj={"tool":"calculator"}`, lines[0])
	assert.Equal(t, `2026-01-02T03:04:05Z DEBUG plain`, lines[1])
}

func TestWriterLoggerFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelWarn)

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)
	l.Error("shown", nil)

	assert.Equal(t, 2, strings.Count(buf.String(), "shown"))
	assert.NotContains(t, buf.String(), "hidden")
}

func TestWriterLoggerFallsBackForUnmarshalable(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelDebug)

	l.Error("bad", Fields{"fn": func() {}})
	assert.Contains(t, buf.String(), "ERROR bad obj=")
}

func TestHelpersAreNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug(nil, "x", nil)
		Debugf(nil, "x %d", 1)
		Info(nil, "x", nil)
		Warn(nil, "x", nil)
		Error(nil, "x", nil)
	})
	assert.IsType(t, NopLogger{}, OrNop(nil))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("Debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
