package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/textfilter/internal/config"
	"github.com/hupe1980/textfilter/internal/diff"
	"github.com/hupe1980/textfilter/internal/filter"
	"github.com/hupe1980/textfilter/internal/input"
	"github.com/hupe1980/textfilter/internal/logging"
	"github.com/hupe1980/textfilter/internal/output"
	"github.com/hupe1980/textfilter/internal/report"
	"github.com/hupe1980/textfilter/internal/watch"
)

func runFilter(ctx context.Context, cmd *cobra.Command, args []string, opts *filterOptions) error {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if err := validateFilterOptions(args, opts); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	if opts.watch {
		return runWatch(ctx, cmd, args, opts, cfg, logger)
	}

	var run runFunc = filterOnce
	if opts.diff {
		run = diffOnce
	}

	stats, err := run(ctx, cmd, args, opts, cfg, logger)
	if err != nil {
		return err
	}

	if opts.stats {
		r := report.Report{Source: sourceLabel(args), Stats: stats}
		if err := report.Write(cmd.ErrOrStderr(), r, cfg.StatsFormat); err != nil {
			return &ExitError{Code: 1, Err: err}
		}
	}

	return nil
}

func validateFilterOptions(args []string, opts *filterOptions) error {
	if opts.watch {
		if opts.diff {
			return errors.New("--watch and --diff cannot be combined")
		}

		if len(args) == 0 {
			return errors.New("--watch requires at least one input file")
		}

		for _, a := range args {
			if a == input.Stdin {
				return errors.New("--watch cannot watch standard input")
			}
		}

		if opts.output == "" || opts.output == output.Stdout {
			return errors.New("--watch requires --output")
		}
	}

	return checkOutputNotInput(args, opts.output)
}

// checkOutputNotInput refuses an output file that is one of the inputs, which
// would be truncated before it is read.
func checkOutputNotInput(args []string, path string) error {
	if path == "" || path == output.Stdout {
		return nil
	}

	outInfo, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // output does not exist yet
	}

	for _, a := range args {
		if a == input.Stdin {
			continue
		}

		if inInfo, err := os.Stat(a); err == nil && os.SameFile(inInfo, outInfo) {
			return fmt.Errorf("output %q is also an input file", path)
		}
	}

	return nil
}

type runFunc func(ctx context.Context, cmd *cobra.Command, args []string,
	opts *filterOptions, cfg *config.Config, logger *slog.Logger) (filter.Stats, error)

// filterOnce opens input and output, copies the filtered stream and releases
// both on every path.
func filterOnce(ctx context.Context, cmd *cobra.Command, args []string,
	opts *filterOptions, cfg *config.Config, logger *slog.Logger,
) (stats filter.Stats, err error) {
	src, sink, err := openStreams(ctx, cmd, args, opts, cfg, logger)
	if err != nil {
		return filter.Stats{}, err
	}

	defer func() { _ = src.Close() }()
	defer closeSink(sink, &err, logger)

	stats, err = filter.Copy(ctx, sink, src)

	logger.Debug("filter run finished",
		slog.String("output", sink.Path()),
		slog.Int64("bytes", stats.Bytes),
		slog.Int64("replaced", stats.Replaced),
	)

	return stats, classify(err, logger)
}

// diffOnce reads the whole input and writes a unified diff between it and its
// filtered form.
func diffOnce(ctx context.Context, cmd *cobra.Command, args []string,
	opts *filterOptions, cfg *config.Config, logger *slog.Logger,
) (stats filter.Stats, err error) {
	src, sink, err := openStreams(ctx, cmd, args, opts, cfg, logger)
	if err != nil {
		return filter.Stats{}, err
	}

	defer func() { _ = src.Close() }()
	defer closeSink(sink, &err, logger)

	data, readErr := io.ReadAll(src)
	if readErr != nil {
		var runErr error = &filter.ReadError{Err: readErr}
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = ctxErr
		}

		if err := classify(runErr, logger); err != nil {
			return filter.Stats{}, err
		}
	}

	label := sourceLabel(args)
	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = label
	diffOpts.NewLabel = label + " (filtered)"

	result, err := diff.Compute(string(data), filter.String(string(data)), diffOpts)
	if err != nil {
		return filter.Stats{}, &ExitError{Code: 1, Err: err}
	}

	diff.Write(sink, result, !cfg.NoColor && sink.IsTerminal())

	return filter.Scan(data), nil
}

func openStreams(ctx context.Context, cmd *cobra.Command, args []string,
	opts *filterOptions, cfg *config.Config, logger *slog.Logger,
) (io.ReadCloser, *output.Sink, error) {
	src, err := openInput(ctx, cmd, args, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	sink, err := openOutput(cmd, opts.output, logger)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}

	return src, sink, nil
}

func openInput(ctx context.Context, cmd *cobra.Command, args []string,
	cfg *config.Config, logger *slog.Logger,
) (io.ReadCloser, error) {
	src, err := input.Open(ctx, args, input.Options{
		Decompress: cfg.Decompress,
		Stdin:      cmd.InOrStdin(),
		Logger:     logger,
	})
	if err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}

	return src, nil
}

func openOutput(cmd *cobra.Command, path string, logger *slog.Logger) (*output.Sink, error) {
	sink, err := output.Open(path,
		output.WithStdout(cmd.OutOrStdout()),
		output.WithLogger(logger),
	)
	if err != nil {
		return nil, &ExitError{Code: 1, Err: err}
	}

	return sink, nil
}

// classify maps a run error to the CLI's outcome. A fault in the middle of
// the input stream ends the run like end-of-stream does, and a downstream
// reader that went away is not an error either.
func classify(err error, logger *slog.Logger) error {
	if err == nil {
		return nil
	}

	var openErr *input.OpenError
	if errors.As(err, &openErr) {
		return &ExitError{Code: 1, Err: err}
	}

	var readErr *filter.ReadError
	if errors.As(err, &readErr) {
		logger.Warn("input read failed; treating as end of stream", slog.String("error", readErr.Err.Error()))
		return nil
	}

	if output.IsBrokenPipe(err) {
		logger.Debug("output closed by reader", slog.String("error", err.Error()))
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: 130, Err: err}
	}

	return &ExitError{Code: 1, Err: err}
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string,
	opts *filterOptions, cfg *config.Config, logger *slog.Logger,
) error {
	wOpts := watch.DefaultOptions()
	wOpts.Files = args
	wOpts.Debounce = opts.debounce
	wOpts.Logger = logger
	wOpts.Out = cmd.ErrOrStderr()

	var (
		total filter.Stats
		runs  int
	)

	err := watch.Run(ctx, wOpts, func(runCtx context.Context) (filter.Stats, error) {
		stats, err := filterOnce(runCtx, cmd, args, opts, cfg, logger)
		total.Add(stats)
		runs++

		if err == nil && opts.stats {
			r := report.Report{Source: sourceLabel(args), Stats: stats}
			err = report.Write(cmd.ErrOrStderr(), r, cfg.StatsFormat)
		}

		return stats, err
	})

	logger.Info("watch finished",
		slog.Int("runs", runs),
		slog.Int64("bytes", total.Bytes),
		slog.Int64("replaced", total.Replaced),
	)

	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	return nil
}

func sourceLabel(args []string) string {
	if len(args) == 0 {
		return "<stdin>"
	}

	labels := make([]string, len(args))
	for i, a := range args {
		if a == input.Stdin {
			labels[i] = "<stdin>"
		} else {
			labels[i] = a
		}
	}

	return strings.Join(labels, ", ")
}
