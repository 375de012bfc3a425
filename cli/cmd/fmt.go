package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
)

// Fmt parses a program and prints it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as canonical MiniPython source (default)."`
	Tokens Tokens `cmd:""                    help:"List the token stream."`
	JSON   JSON   `cmd:""                    help:"Format the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Format the syntax tree as YAML."`
}

// Native formats input as canonical MiniPython source.
type Native struct {
	Indent int `default:"4" help:"Indent width for formatted output" short:"i"`

	Source string `arg:"" default:"-" help:"Source file, name on the search path, or '-' for stdin." name:"source"`
}

// Run executes the fmt command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, f.Source, "native")
	if err != nil {
		return err
	}

	return prog.Format(stdioFrom(ctx).Out, f.Indent)
}

// Tokens prints one token per line.
type Tokens struct {
	Source string `arg:"" default:"-" help:"Source file, name on the search path, or '-' for stdin." name:"source"`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := resolveSource(ctx, t.Source)
	if err != nil {
		return err
	}

	stdio := stdioFrom(ctx)

	src, err := s.read(stdio.In)
	if err != nil {
		return err
	}

	if err := lang.FormatTokens(stdio.Out, src); err != nil {
		return report(stdio, s.name, src, err)
	}

	return nil
}

// JSON outputs the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Source file, name on the search path, or '-' for stdin." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	return lang.FormatJSON(stdioFrom(ctx).Out, prog, j.Indent)
}

// YAML outputs the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Source file, name on the search path, or '-' for stdin." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	return lang.FormatYAML(ctx, stdioFrom(ctx).Out, prog, y.Indent)
}

func resolveSource(ctx context.Context, name string) (script, error) {
	scripts, err := resolveScripts([]string{name}, settingsFrom(ctx).SearchPath)
	if err != nil {
		return script{}, err
	}

	return scripts[0], nil
}

// parseSource parses the program named by name.
func parseSource(ctx context.Context, name, format string) (*lang.Program, error) {
	s, err := resolveSource(ctx, name)
	if err != nil {
		return nil, err
	}

	r, err := s.open(stdioFrom(ctx).In)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	prog, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
	if err != nil {
		return nil, lang.WrapError(err).
			With(slog.String("format", format), slog.String("source", s.name))
	}

	return prog, nil
}
