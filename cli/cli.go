package cli

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/minipy/cli/cmd"
	"github.com/ardnew/minipy/lang"
	"github.com/ardnew/minipy/log"
	"github.com/ardnew/minipy/pkg"
)

// ErrMaxDepth is returned when --max-depth exceeds [lang.MaxDepthLimit].
var ErrMaxDepth = cmd.NewError("max depth out of range")

// CLI is the top-level command-line interface for minipy.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Define   []string `help:"Predefine global NAME as the value of expr-lang expression EXPR" placeholder:"NAME=EXPR" sep:"none" short:"D"`
	Path     []string `help:"Search DIR for scripts named without a path, before those in ${pathEnv}" placeholder:"DIR" sep:"none" short:"I" type:"path"`
	MaxDepth int      `help:"Limit on nested function calls, at most ${maxDepthLimit}"         default:"${maxDepth}"`

	Run     cmd.Run     `cmd:"" default:"withargs" help:"Run scripts, or start the REPL"`
	Eval    cmd.Eval    `cmd:""                    help:"Evaluate program text given as arguments"`
	Repl    cmd.Repl    `cmd:""                    help:"Start an interactive session"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format a program"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version information"`
}

// Run executes the minipy CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		"pathEnv":            pkg.PathEnv,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"maxDepthLimit":      strconv.Itoa(lang.MaxDepthLimit),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(loadYAML, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	defer cli.Log.start(ctx)()

	set, err := cli.settings()
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "settings",
		slog.Int("globals", len(set.Globals)),
		slog.Int("max_depth", set.MaxDepth),
		slog.Any("search_path", set.SearchPath),
	)

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSettings(ctx, set)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// settings returns the interpreter settings selected by the global flags.
func (c *CLI) settings() (cmd.Settings, error) {
	globals, err := defines(c.Define)
	if err != nil {
		return cmd.Settings{}, err
	}

	depth := c.MaxDepth
	if depth < 1 {
		depth = lang.DefaultMaxDepth
	}

	if depth > lang.MaxDepthLimit {
		return cmd.Settings{}, ErrMaxDepth.With(
			slog.Int("max_depth", depth),
			slog.Int("limit", lang.MaxDepthLimit),
		)
	}

	return cmd.Settings{
		Globals:    globals,
		MaxDepth:   depth,
		SearchPath: searchPath(os.Getenv(pkg.PathEnv), c.Path...),
		CacheDir:   pkg.CacheDir(),
	}, nil
}
