package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type lazyValue struct{ n int }

func (v lazyValue) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("n", v.n), slog.String("kind", "lazy"))
}

func TestPrettyHandler_Text_SingleLine(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf,
		WithFormat(FormatText),
		WithTimeLayout("none"),
		WithLevel(LevelDebug))

	logger.Debug("parsed",
		slog.Int("statements", 3),
		slog.Bool("cached", false),
		slog.Duration("took", 2*time.Millisecond),
		slog.Any("error", errors.New("boom")))

	want := "level=DEBUG msg=parsed statements=3 cached=false took=2ms error=boom\n"
	if got := buf.String(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPrettyHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatText), WithTimeLayout("none"))

	grouped := slog.New(
		logger.Handler().
			WithAttrs([]slog.Attr{slog.String("component", "lexer")}).
			WithGroup("token"),
	)
	grouped.Info("scan", slog.String("kind", "INDENT"), slog.Any("v", lazyValue{7}))

	out := buf.String()
	for _, s := range []string{
		"component=lexer",
		"token.kind=INDENT",
		"token.v.n=7",
		"token.v.kind=lazy",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in %q", s, out)
		}
	}
}

func TestPrettyHandler_JSON_MultiLine(t *testing.T) {
	var buf bytes.Buffer
	logger := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))

	logger.Warn("slow", slog.String("phase", "eval"))

	want := "{\n  level: WARN,\n  msg: slow,\n  phase: eval\n}\n"
	if got := buf.String(); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}
