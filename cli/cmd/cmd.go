package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
	"github.com/ardnew/minipy/pkg"
)

// ConfigIdentifier is the kong variable identifier containing the path to
// the YAML configuration file.
var ConfigIdentifier = "config"

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Settings is the interpreter configuration shared by every command.
type Settings struct {
	Globals    map[string]lang.Value // predefined global variables
	MaxDepth   int                   // limit on nested calls
	SearchPath []string              // directories searched for bare script names
	CacheDir   string                // where the REPL keeps its history
}

type settingsKey struct{}

// WithSettings returns a new context.Context containing s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

func settingsFrom(ctx context.Context) Settings {
	s, _ := ctx.Value(settingsKey{}).(Settings)

	return s
}

// options returns the interpreter options selected by s.
func (s Settings) options() []lang.Option {
	return []lang.Option{
		lang.WithGlobals(s.Globals),
		lang.WithMaxDepth(s.MaxDepth),
		lang.WithLogger(log.Default()),
	}
}

// Stdio holds the streams used by commands. Nil fields select the process's
// standard streams.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type stdioKey struct{}

// WithStdio returns a new context.Context whose commands use the given
// streams.
func WithStdio(ctx context.Context, s Stdio) context.Context {
	return context.WithValue(ctx, stdioKey{}, s)
}

func stdioFrom(ctx context.Context) Stdio {
	s, _ := ctx.Value(stdioKey{}).(Stdio)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// isTerminal reports whether r is a file attached to a terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// withTimeout bounds ctx by d, or only adds cancellation if d is not
// positive.
func withTimeout(
	ctx context.Context,
	d time.Duration,
) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeoutCause(ctx, d,
		ErrTimeout.With(slog.Duration("timeout", d)))
}

// stdinSource is the special script name for reading from stdin.
const stdinSource = "-"

// script is a program source selected on the command line.
type script struct {
	name string // as given by the user
	path string // resolved file, empty for stdin
}

// read returns the script's source text.
func (s script) read(stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)

	if s.path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(s.path)
	}

	if err != nil {
		return "", ErrReadScript.With(slog.String("script", s.name)).Wrap(err)
	}

	return string(data), nil
}

// open returns a reader over the script's source text.
func (s script) open(stdin io.Reader) (io.ReadCloser, error) {
	if s.path == "" {
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, ErrReadScript.With(slog.String("script", s.name)).Wrap(err)
	}

	return f, nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// resolveScripts locates each named script, in order.
//
// A name that is not an existing file is looked up along searchPath, as
// given and then with the [pkg.SourceExt] suffix. Names resolving to the same
// file, by device and inode, are kept only once. Every "-" selects stdin,
// which is likewise kept once, in the position of its first occurrence.
func resolveScripts(names, searchPath []string) ([]script, error) {
	scripts := make([]script, 0, len(names))
	seen := make(map[fileKey]struct{})
	stdin := false

	for _, name := range names {
		if name == stdinSource {
			if !stdin {
				scripts = append(scripts, script{name: name})
			}

			stdin = true

			continue
		}

		path, err := lookPath(name, searchPath)
		if err != nil {
			return nil, err
		}

		if key, ok := statFileKey(path); ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		scripts = append(scripts, script{name: name, path: path})
	}

	return scripts, nil
}

// lookPath returns the file named by name, searching dirs if name is not
// itself a regular file.
func lookPath(name string, dirs []string) (string, error) {
	if isRegular(name) {
		return name, nil
	}

	if !filepath.IsAbs(name) {
		for _, dir := range dirs {
			for _, candidate := range []string{name, name + pkg.SourceExt} {
				path := filepath.Join(dir, candidate)
				if isRegular(path) {
					return path, nil
				}
			}
		}
	}

	return "", ErrScriptNotFound.With(
		slog.String("script", name),
		slog.Any("search_path", dirs),
	)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// statFileKey returns the fileKey of the file at path after resolving
// symlinks. It reports false if the file cannot be examined.
func statFileKey(path string) (fileKey, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
