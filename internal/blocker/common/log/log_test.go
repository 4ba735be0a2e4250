package log

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (l *recordingLogger) add(level string, fields map[string]any, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, recordedEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Info(f map[string]any, msg string)  { l.add("INFO", f, msg) }
func (l *recordingLogger) Error(f map[string]any, msg string) { l.add("ERROR", f, msg) }
func (l *recordingLogger) Debug(f map[string]any, msg string) { l.add("DEBUG", f, msg) }
func (l *recordingLogger) Warn(f map[string]any, msg string)  { l.add("WARN", f, msg) }
func (l *recordingLogger) Panic(f map[string]any, msg string) { l.add("PANIC", f, msg) }
func (l *recordingLogger) Fatal(f map[string]any, msg string) { l.add("FATAL", f, msg) }

func TestActualZapLogger(t *testing.T) {
	Debug(map[string]any{"key1": "value1", "key2": 42, "err": errors.New("boom")}, "test debug")
	Info(nil, "test info")
	Warn(nil, "test warn")
	Error(nil, "test error")

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic, but none occurred")
		}
	}()
	Panic(nil, "test panic")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	rec := &recordingLogger{}
	SetLogger(rec)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(nil, "debug msg")
	Warn(nil, "warn msg")

	require.Len(t, rec.entries, 4)
	got := []string{}
	for _, e := range rec.entries {
		got = append(got, e.level+":"+e.msg)
	}
	assert.Equal(t, []string{"INFO:info msg", "ERROR:error msg", "DEBUG:debug msg", "WARN:warn msg"}, got)
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	assert.NoError(t, Configure("dev", "DEBUG"))
	assert.NoError(t, Configure("prod", "warn"))
	assert.Error(t, Configure("prod", "verbose"))
}

func TestWith_MergesFields(t *testing.T) {
	rec := &recordingLogger{}
	l := With(rec, map[string]any{"component": "watcher", "k": "fixed"})

	l.Info(map[string]any{"k": "call"}, "tick")
	l.Warn(nil, "warn")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "watcher", rec.entries[0].fields["component"])
	assert.Equal(t, "call", rec.entries[0].fields["k"], "call fields win")
	assert.Equal(t, "fixed", rec.entries[1].fields["k"])
}

func TestWith_NoFieldsReturnsSameLogger(t *testing.T) {
	rec := &recordingLogger{}
	assert.Same(t, rec, With(rec, nil).(*recordingLogger))
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Info(nil, "x")
	l.Error(nil, "x")
	l.Debug(nil, "x")
	l.Warn(nil, "x")
	l.Panic(nil, "x")
	l.Fatal(nil, "x")
}
