package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	logger := Make(io.Discard)

	if logger.level != DefaultLevel {
		t.Errorf("level = %v, want %v", logger.level, DefaultLevel)
	}

	if logger.format != DefaultFormat {
		t.Errorf("format = %v, want %v", logger.format, DefaultFormat)
	}

	if logger.caller != DefaultCaller || logger.pretty != DefaultPretty {
		t.Errorf("caller, pretty = %v, %v, want %v, %v",
			logger.caller, logger.pretty, DefaultCaller, DefaultPretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"warn at error", Logger.Warn, LevelError, false},
		{"error at error", Logger.Error, LevelError, true},
		{"error at trace", Logger.Error, LevelTrace, true},
		{"debug context at debug", func(l Logger, m string, a ...slog.Attr) {
			l.DebugContext(t.Context(), m, a...)
		}, LevelDebug, true},
		{"info context at warn", func(l Logger, m string, a ...slog.Attr) {
			l.InfoContext(t.Context(), m, a...)
		}, LevelWarn, false},
		{"warn context at info", func(l Logger, m string, a ...slog.Attr) {
			l.WarnContext(t.Context(), m, a...)
		}, LevelInfo, true},
		{"error context at error", func(l Logger, m string, a ...slog.Attr) {
			l.ErrorContext(t.Context(), m, a...)
		}, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min)), "call enter")

			if logged := strings.Contains(buf.String(), "call enter"); logged != tt.logged {
				t.Errorf("logged = %v, want %v; output %q", logged, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_Output(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		log     func(Logger)
		want    []string
		notWant []string
	}{
		{
			name: "text",
			opts: []Option{WithFormat(FormatText), WithPretty(false)},
			log: func(l Logger) {
				l.Info("script finished", slog.String("script", "fib.py"))
			},
			want: []string{`msg="script finished"`, "script=fib.py", "level=INFO"},
		},
		{
			name: "caller",
			opts: []Option{WithCaller(true), WithPretty(false)},
			log:  func(l Logger) { l.Info("parse complete") },
			want: []string{`"source"`, "log_test.go"},
		},
		{
			name:    "no caller",
			opts:    []Option{WithCaller(false), WithPretty(false)},
			log:     func(l Logger) { l.Info("parse complete") },
			notWant: []string{`"source"`},
		},
		{
			name: "named time layout",
			opts: []Option{WithTimeLayout("RFC3339Nano"), WithPretty(false)},
			log:  func(l Logger) { l.Info("exec complete") },
			want: []string{`"time":"`, "."},
		},
		{
			name:    "time disabled",
			opts:    []Option{WithTimeLayout("none"), WithPretty(false)},
			log:     func(l Logger) { l.Info("exec complete") },
			notWant: []string{`"time"`},
		},
		{
			name:    "pretty trace level name",
			opts:    []Option{WithLevel(LevelTrace), WithFormat(FormatText)},
			log:     func(l Logger) { l.Trace("call enter") },
			want:    []string{"TRACE", "call enter"},
			notWant: []string{"DEBUG-4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, tt.opts...))

			output := buf.String()

			for _, s := range tt.want {
				if !strings.Contains(output, s) {
					t.Errorf("output %q does not contain %q", output, s)
				}
			}

			for _, s := range tt.notWant {
				if strings.Contains(output, s) {
					t.Errorf("output %q contains %q", output, s)
				}
			}
		})
	}
}

func TestLogger_JSONRecord(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false)).
		With(slog.String("script", "fib.py"))

	logger.Trace("call enter",
		slog.String("function", "fib"),
		slog.Int("depth", 3),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON record %q: %v", buf.String(), err)
	}

	for key, want := range map[string]any{
		"level":    "TRACE",
		"msg":      "call enter",
		"script":   "fib.py",
		"function": "fib",
		"depth":    float64(3),
	} {
		if rec[key] != want {
			t.Errorf("%s = %v, want %v", key, rec[key], want)
		}
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("call enter")
	l.Info("exec complete")
	l.Error("run failed")

	if l.With(slog.String("script", "fib.py")).Logger != nil {
		t.Error("With on the zero Logger returned a usable logger")
	}
}

func TestLogger_ConcurrentInterpreters(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false))

	var wg sync.WaitGroup
	for id := range 100 {
		wg.Go(func() {
			logger.Info("exec complete", slog.Int("interpreter", id))
		})
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("got %d records, want 100", len(lines))
	}
}

func TestLogger_EnabledAt(t *testing.T) {
	logger := Make(&bytes.Buffer{}, WithLevel(LevelWarn))

	if logger.EnabledAt(t.Context(), LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.EnabledAt(t.Context(), LevelError) {
		t.Error("error should be enabled at warn level")
	}

	var zero Logger
	if zero.EnabledAt(t.Context(), LevelError) {
		t.Error("zero logger should never be enabled")
	}
}

func TestLogger_Wrap_OverridesConfig(t *testing.T) {
	var buf bytes.Buffer
	base := Make(&buf, WithLevel(LevelError), WithPretty(false))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("base level changed to %v", base.Level())
	}
	if wrapped.Level() != LevelDebug {
		t.Errorf("expected wrapped level debug, got %v", wrapped.Level())
	}

	wrapped.Debug("settings")
	if !strings.Contains(buf.String(), "settings") {
		t.Error("wrapped logger did not write to inherited output")
	}
}

func BenchmarkLogger_Trace_Disabled(b *testing.B) {
	logger := Make(io.Discard, WithLevel(LevelInfo))

	for b.Loop() {
		logger.Trace("call", slog.String("name", "fib"), slog.Int("depth", 3))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	for _, caller := range []bool{false, true} {
		b.Run(fmt.Sprintf("caller=%t", caller), func(b *testing.B) {
			logger := Make(io.Discard, WithCaller(caller))

			for b.Loop() {
				logger.Info("exec complete", slog.Int("statements", 12))
			}
		})
	}
}
