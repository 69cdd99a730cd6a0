package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/carepath/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("opened") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("cache hit") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("cache hit") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Exported 2 artifacts")

	out := buf.String()
	if !strings.Contains(out, "Exported 2 artifacts") || !strings.Contains(out, "ms)") {
		t.Errorf("progress output = %q", out)
	}
}

func TestLoggerContext(t *testing.T) {
	l := newLogger(io.Discard, log.WarnLevel)
	if got := loggerFromContext(withLogger(context.Background(), l)); got != l {
		t.Error("logger not carried by context")
	}
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("expected default logger without context value")
	}
}

func TestSetLogLevelInstallsHooks(t *testing.T) {
	t.Cleanup(func() {
		observability.SetEditorHooks(observability.NoopEditorHooks{})
		observability.SetCacheHooks(observability.NoopCacheHooks{})
		observability.SetHTTPHooks(observability.NoopHTTPHooks{})
	})

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogDebug)

	observability.Cache().OnCacheHit(context.Background(), "overview")
	if !strings.Contains(buf.String(), "cache hit") {
		t.Errorf("debug hooks not installed: %q", buf.String())
	}
}
