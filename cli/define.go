package cli

import (
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"

	"github.com/ardnew/minipy/cli/cmd"
	"github.com/ardnew/minipy/lang"
)

var (
	// ErrDefine is returned for any definition that cannot become a global.
	ErrDefine = cmd.NewError("invalid definition")
	// ErrDefineSyntax is wrapped by ErrDefine when a definition is not of the
	// form NAME=EXPR with NAME a valid identifier.
	ErrDefineSyntax = cmd.NewError("expected NAME=EXPR")
)

// defines evaluates each NAME=EXPR definition in order and returns the
// results as interpreter globals.
//
// EXPR is an expr-lang expression. It may refer to names defined earlier and
// to the helpers env(NAME), hostname and cwd(). Its result must be nil, a
// bool, a number or a string.
func defines(defs []string) (map[string]lang.Value, error) {
	globals := make(map[string]lang.Value, len(defs))
	native := make(map[string]any, len(defs))

	for _, def := range defs {
		name, src, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)

		if !ok || !isIdentifier(name) {
			return nil, ErrDefine.With(slog.String("define", def)).
				Wrap(ErrDefineSyntax)
		}

		env := defineEnv(native)

		program, err := expr.Compile(src, expr.Env(env))
		if err != nil {
			return nil, ErrDefine.With(slog.String("define", def)).Wrap(err)
		}

		out, err := expr.Run(program, env)
		if err != nil {
			return nil, ErrDefine.With(slog.String("define", def)).Wrap(err)
		}

		v, err := lang.FromNative(out)
		if err != nil {
			return nil, ErrDefine.With(slog.String("define", def)).Wrap(err)
		}

		native[name] = out
		globals[name] = v
	}

	return globals, nil
}

// defineEnv returns the expr-lang environment for a definition, holding the
// helper functions and every value defined so far.
func defineEnv(defined map[string]any) map[string]any {
	env := map[string]any{
		"env":      os.Getenv,
		"hostname": hostname(),
		"cwd": func() string {
			wd, err := os.Getwd()
			if err != nil {
				return "."
			}

			return wd
		},
	}

	maps.Copy(env, defined)

	return env
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "localhost"
	}

	return name
}

// isIdentifier reports whether s can name a MiniPython variable.
func isIdentifier(s string) bool {
	if s == "" || slices.Contains(lang.Keywords(), s) {
		return false
	}

	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}

	return true
}
