package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the lipgloss styles used by the pretty handler. They are bound
// to a renderer for the handler's writer, so colour is only emitted when that
// writer is a colour-capable terminal.
type styles struct {
	key      lipgloss.Style
	str      lipgloss.Style
	number   lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	duration lipgloss.Style
	time     lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	info     lipgloss.Style
	debug    lipgloss.Style
}

func makeStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)

	return styles{
		key:      r.NewStyle().Foreground(lipgloss.Color("8")),
		str:      r.NewStyle().Foreground(lipgloss.Color("6")),
		number:   r.NewStyle().Foreground(lipgloss.Color("3")),
		yes:      r.NewStyle().Foreground(lipgloss.Color("2")),
		no:       r.NewStyle().Foreground(lipgloss.Color("1")),
		duration: r.NewStyle().Foreground(lipgloss.Color("5")),
		time:     r.NewStyle().Foreground(lipgloss.Color("4")),
		err:      r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:     r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		info:     r.NewStyle().Foreground(lipgloss.Color("2")),
		debug:    r.NewStyle().Foreground(lipgloss.Color("4")),
	}
}

// prettyHandler is a colourized [slog.Handler] for humans. With [FormatText]
// each record is a single line of key=value pairs; with [FormatJSON] it is an
// indented object with one field per line.
type prettyHandler struct {
	opts   slog.HandlerOptions
	format Format
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // resolved and prefixed with their groups
	groups []string
	style  styles
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	format Format,
) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		format: format,
		mu:     &sync.Mutex{},
		w:      w,
		style:  makeStyles(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.groups, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = h.appendBuiltin(fields, slog.Time(slog.TimeKey, r.Time))
	}

	fields = h.appendBuiltin(fields, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fields = h.appendBuiltin(fields, slog.String(
				slog.SourceKey, src.File+":"+strconv.Itoa(src.Line),
			))
		}
	}

	fields = h.appendBuiltin(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.groups, a)

		return true
	})

	var buf bytes.Buffer

	if h.format == FormatJSON {
		h.writeObject(&buf, fields)
	} else {
		h.writeLine(&buf, fields)
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// appendBuiltin passes a built-in attribute through ReplaceAttr (if set)
// before appending it. An attribute replaced by the empty Attr is dropped.
func (h *prettyHandler) appendBuiltin(
	fields []slog.Attr,
	a slog.Attr,
) []slog.Attr {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Equal(slog.Attr{}) {
		return fields
	}

	return append(fields, a)
}

// flatten resolves a and appends it to dst. Group values expand into one
// attribute per member, with dotted keys carrying the group path.
func flatten(dst []slog.Attr, groups []string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		prefix := groups
		if a.Key != "" {
			prefix = append(slices.Clip(groups), a.Key)
		}

		for _, member := range a.Value.Group() {
			dst = flatten(dst, prefix, member)
		}

		return dst
	}

	if a.Equal(slog.Attr{}) {
		return dst
	}

	if len(groups) > 0 {
		a.Key = strings.Join(groups, ".") + "." + a.Key
	}

	return append(dst, a)
}

func (h *prettyHandler) writeLine(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteByte('=')
		buf.WriteString(h.style.value(a.Key, a.Value))
	}
}

func (h *prettyHandler) writeObject(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.style.key.Render(a.Key))
		buf.WriteString(": ")
		buf.WriteString(h.style.value(a.Key, a.Value))
	}

	buf.WriteString("\n}")
}

// value styles v according to its kind. Strings are written without quotes
// and the level field keeps its severity colour after ReplaceAttr has turned
// it into a string.
func (s styles) value(key string, v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		if key == slog.LevelKey {
			return s.level(ParseLevel(v.String()), v.String())
		}

		return s.str.Render(v.String())

	case slog.KindInt64:
		return s.number.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return s.number.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return s.number.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			return s.yes.Render("true")
		}

		return s.no.Render("false")

	case slog.KindDuration:
		return s.duration.Render(v.Duration().String())

	case slog.KindTime:
		return s.time.Render(v.Time().Format(time.RFC3339))

	case slog.KindAny:
		switch x := v.Any().(type) {
		case slog.Level:
			return s.level(Level(x), strings.ToUpper(Level(x).String()))
		case error:
			return s.str.Render(x.Error())
		case fmt.Stringer:
			return s.str.Render(x.String())
		case nil:
			return s.key.Render("null")
		}

		return s.str.Render(fmt.Sprint(v.Any()))

	default:
		return s.str.Render(v.String())
	}
}

func (s styles) level(level Level, name string) string {
	switch {
	case level >= LevelError:
		return s.err.Render(name)
	case level >= LevelWarn:
		return s.warn.Render(name)
	case level >= LevelInfo:
		return s.info.Render(name)
	default:
		return s.debug.Render(name)
	}
}
