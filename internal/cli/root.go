// Package cli implements the cobra command tree for textfilter.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/textfilter/internal/config"
	"github.com/hupe1980/textfilter/internal/input"
	"github.com/hupe1980/textfilter/internal/logging"
	"github.com/hupe1980/textfilter/internal/report"
	"github.com/hupe1980/textfilter/internal/watch"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
//
// SIGPIPE is ignored so that a closed downstream pipe surfaces as EPIPE from
// the write instead of killing the process. SIGINT and SIGTERM cancel the
// run's context, which ends it with exit code 130.
func Execute() int {
	signal.Ignore(syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, NewRootCommand(), os.Stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached. The root command itself runs the filter.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "textfilter [flags] [file...]",
		Short: "Replace everything but letters, spaces and newlines with spaces",
		Long: `textfilter copies its input to its output byte by byte. ASCII letters
(A-Z, a-z), spaces and newlines pass through unchanged; every other byte,
including digits, punctuation, tabs, carriage returns and bytes >= 0x80, is
replaced by a single space. Output is always exactly as long as the input.

With no file arguments, or with "-", standard input is read. Several files
are filtered back to back as one stream.`,
		Example: `  # Filter standard input to standard output
  textfilter < book.txt > words.txt

  # Filter compressed files into one output file
  textfilter --decompress auto -o corpus.txt part1.txt.gz part2.txt.zst

  # Show what the filter would change
  textfilter --diff notes.txt`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("decompress", cfg.Decompress),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd.Context(), cmd, args, opts)
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .textfilter.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	registerFilterFlags(cmd, opts)

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newWordsCommand(),
		newIndexCommand(),
		newTopCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}

// registerFilterFlags adds the flags of the filter run to the root command.
// decompress and stats-format are read back through config so that they can
// also come from the environment or the config file.
func registerFilterFlags(cmd *cobra.Command, opts *filterOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.String("decompress", input.DecompressNone, "input decompression: none, gzip, zstd, auto")
	f.BoolVar(&opts.diff, "diff", false, "print a unified diff of the changes instead of the filtered output")
	f.BoolVar(&opts.stats, "stats", false, "print run statistics to stderr")
	f.String("stats-format", report.FormatText, "statistics format: text, json, yaml")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-run whenever an input file changes (requires files and --output)")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "quiet period before a watch re-run")
}

type filterOptions struct {
	output   string
	diff     bool
	stats    bool
	watch    bool
	debounce time.Duration
}
