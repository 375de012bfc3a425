package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// loadYAML is a [kong.ConfigurationLoader] for YAML configuration files,
// such as the one written by the init command.
//
// The document must be a mapping from flag names to values:
//
//	log-level: debug
//	max-depth: 200
//	path:
//	  - ~/scripts
//	define:
//	  - user=env("USER")
//
// Keys may use underscores in place of hyphens. Flags given on the command
// line override values from the file. A malformed file is ignored.
func loadYAML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return config{}, nil //nolint:nilerr
	}

	conf := make(config, len(doc))
	for key, val := range doc {
		conf[key] = flagValue(val)
	}

	return conf, nil
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := c[name]; ok {
			return value, nil
		}
	}

	return nil, nil
}

// flagValue converts a decoded YAML value to a form kong can decode into a
// flag. Kong parses numbers from strings, so numbers are formatted, including
// those inside sequences.
func flagValue(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = flagValue(e)
		}

		return out
	default:
		return v
	}
}
