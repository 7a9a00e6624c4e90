package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Fields carries structured attributes for one log line.
type Fields map[string]any

// Logger is the logging interface used across the module.
type Logger interface {
	Debug(msg string, obj any)
	Info(msg string, obj any)
	Warn(msg string, obj any)
	Error(msg string, obj any)
}

// NopLogger discards all log messages.
type NopLogger struct{}

func (NopLogger) Debug(string, any) {}
func (NopLogger) Info(string, any)  {}
func (NopLogger) Warn(string, any)  {}
func (NopLogger) Error(string, any) {}

type writerLogger struct {
	mu  *sync.Mutex
	w   io.Writer
	min Level
	now func() time.Time
}

// NewWriterLogger builds a logger that writes lines at or above min to w.
func NewWriterLogger(w io.Writer, min Level) Logger {
	return writerLogger{mu: &sync.Mutex{}, w: w, min: min, now: time.Now}
}

func (l writerLogger) write(level Level, msg string, obj any) {
	if l.w == nil || level < l.min {
		return
	}

	ts := l.now().Format(time.RFC3339)
	line := fmt.Sprintf("%s %-5s %s", ts, level, msg)
	if obj != nil {
		if b, err := json.Marshal(obj); err == nil {
			line += " obj=" + string(b)
		} else {
			line += fmt.Sprintf(" obj=%q", fmt.Sprintf("%+v", obj))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.w, line+"\n")
}

func (l writerLogger) Debug(msg string, obj any) { l.write(LevelDebug, msg, obj) }
func (l writerLogger) Info(msg string, obj any)  { l.write(LevelInfo, msg, obj) }
func (l writerLogger) Warn(msg string, obj any)  { l.write(LevelWarn, msg, obj) }
func (l writerLogger) Error(msg string, obj any) { l.write(LevelError, msg, obj) }

// OrNop returns logger, or a NopLogger when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return NopLogger{}
	}
	return logger
}

// Debug writes a debug log when logger is non-nil.
func Debug(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Debug(msg, obj)
}

// Debugf is a convenience for format-style debug logging.
func Debugf(logger Logger, format string, args ...any) {
	Debug(logger, fmt.Sprintf(format, args...), nil)
}

// Info writes an info log when logger is non-nil.
func Info(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Info(msg, obj)
}

// Warn writes a warning log when logger is non-nil.
func Warn(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, obj)
}

// Error writes an error log when logger is non-nil.
func Error(logger Logger, msg string, obj any) {
	if logger == nil {
		return
	}
	logger.Error(msg, obj)
}
