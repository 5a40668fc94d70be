// Package main is the refwalk entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/dshills/refwalk/internal/app"
	"github.com/dshills/refwalk/internal/config"
	"github.com/dshills/refwalk/internal/index"
	"github.com/dshills/refwalk/internal/labels"
	"github.com/dshills/refwalk/internal/logutil"
	"github.com/dshills/refwalk/internal/script"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't
	// set, so fall back to runtime/debug.BuildInfo.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "refwalk", "config.toml")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "refwalk", "labels.db")
}

func main() {
	ctx := context.Background()

	var (
		cfg       config.Config
		logger    zerolog.Logger
		logCloser = func() {}
	)

	var (
		flagLogLevel string
		flagLogFile  string
		flagConfig   string
		flagDiff     bool
		flagOnlyID   bool
		flagFormat   string
		flagCache    string
		flagNoCache  bool
	)

	editAction := func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() != 1 {
			return errors.New("expected exactly one file to edit. Run 'refwalk --help' for usage")
		}
		return runEdit(cfg, logger, c.Args().First(), flagDiff, flagOnlyID)
	}

	editFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "diff",
			Usage:       "never write the file; print a unified diff of changes on exit",
			Destination: &flagDiff,
		},
		&cli.BoolFlag{
			Name:        "only-identifier",
			Usage:       "reference sessions insert the bare identifier",
			Sources:     cli.EnvVars("REFWALK_ONLY_IDENTIFIER"),
			Destination: &flagOnlyID,
		},
	}

	cmd := &cli.Command{
		Name:      "refwalk",
		Usage:     "Walk LaTeX labels and insert references interactively",
		UsageText: "refwalk [global options] command [command options]",
		Description: `Refwalk is a small terminal editor for LaTeX sources built around one
operation: press the reference key, pick a direction, and cycle through
the document's \label definitions while a \ref to the current candidate
sits live at the insertion point. Any other key accepts it; the goto key
jumps to the label instead.

Run 'refwalk <file>' to edit a file.
Run 'refwalk labels <pattern>...' to list labels without the editor.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (trace, debug, info, warn, error)",
				Sources:     cli.EnvVars("REFWALK_LOG_LEVEL"),
				Destination: &flagLogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (logging is off without one)",
				Sources:     cli.EnvVars("REFWALK_LOG_FILE"),
				Destination: &flagLogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("REFWALK_CONFIG"),
				Value:       defaultConfigPath(),
				Destination: &flagConfig,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			cfg, err = config.Load(flagConfig)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			level, file := cfg.Logging.Level, cfg.Logging.File
			if flagLogLevel != "" {
				level = flagLogLevel
			}
			if flagLogFile != "" {
				file = flagLogFile
			}
			logger, logCloser, err = logutil.New(level, file)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			logCloser()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "edit",
				Usage:     "Open a LaTeX file in the editor",
				UsageText: "refwalk edit [--diff] <file>",
				Flags:     editFlags,
				Action:    editAction,
			},
			{
				Name:      "labels",
				Usage:     "List label definitions in LaTeX sources",
				UsageText: "refwalk labels [--format text|json|yaml] <pattern>...",
				Description: `Scans the files matching the given glob patterns (doublestar syntax,
so '**/*.tex' recurses) and prints every \label definition. Results
are cached per file in a SQLite database keyed by modification time.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Aliases:     []string{"f"},
						Usage:       "output format (text, json, yaml)",
						Value:       "text",
						Destination: &flagFormat,
					},
					&cli.StringFlag{
						Name:        "cache",
						Usage:       "path to the label cache database",
						Sources:     cli.EnvVars("REFWALK_CACHE"),
						Value:       defaultCachePath(),
						Destination: &flagCache,
					},
					&cli.BoolFlag{
						Name:        "no-cache",
						Usage:       "scan every file, ignoring the cache",
						Destination: &flagNoCache,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runLabels(logger, c.Args().Slice(), flagFormat, flagCache, flagNoCache)
				},
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(ctx context.Context, c *cli.Command) error {
					fmt.Printf("refwalk %s\n", build())
					return nil
				},
			},
		},
		// `refwalk <file>` is the common case.
		Action: editAction,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func runEdit(cfg config.Config, logger zerolog.Logger, path string, diffMode, onlyIdentifier bool) error {
	hooks, err := script.Load(cfg.Hooks.Script,
		script.WithLogger(logger.With().Str("component", "hooks").Logger()))
	if err != nil {
		logger.Warn().Err(err).Str("script", cfg.Hooks.Script).Msg("hook script unavailable")
	}
	defer hooks.Close()

	opts := []app.Option{
		app.WithLogger(logger.With().Str("component", "app").Logger()),
		app.WithHooks(hooks),
	}
	if diffMode {
		opts = append(opts, app.WithDiffMode())
	}
	if onlyIdentifier {
		opts = append(opts, app.WithOnlyIdentifier())
	}

	a, err := app.New(cfg, path, opts...)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create terminal screen: %w", err)
	}
	if err := a.Run(screen); err != nil {
		return err
	}

	if diffMode {
		if diff, ok := a.Diff(); ok {
			fmt.Print(diff)
		}
	}
	return nil
}

func runLabels(logger zerolog.Logger, patterns []string, format, cachePath string, noCache bool) error {
	opts := []labels.Option{
		labels.WithLogger(logger.With().Str("component", "labels").Logger()),
	}

	if !noCache && cachePath != "" {
		if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
			logger.Warn().Err(err).Msg("label cache unavailable")
		} else if store, err := index.Open(cachePath); err != nil {
			logger.Warn().Err(err).Msg("label cache unavailable")
		} else {
			defer func() { _ = store.Close() }()
			opts = append(opts, labels.WithStore(store))
		}
	}

	entries, err := labels.NewCollector(opts...).Collect(patterns)
	if err != nil {
		return err
	}

	out, err := labels.Format(entries, format)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
