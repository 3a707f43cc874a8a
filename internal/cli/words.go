package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/textfilter/internal/config"
	"github.com/hupe1980/textfilter/internal/filter"
	"github.com/hupe1980/textfilter/internal/input"
	"github.com/hupe1980/textfilter/internal/logging"
	"github.com/hupe1980/textfilter/internal/output"
	"github.com/hupe1980/textfilter/internal/report"
	"github.com/hupe1980/textfilter/internal/words"
)

// addDecompressFlag registers --decompress on a subcommand. config.Load binds
// it like the root command's flag.
func addDecompressFlag(cmd *cobra.Command) {
	cmd.Flags().String("decompress", input.DecompressNone, "input decompression: none, gzip, zstd, auto")
}

// closeSink closes sink at the end of a run, keeping an earlier error.
func closeSink(sink *output.Sink, err *error, logger *slog.Logger) {
	if closeErr := sink.Close(); closeErr != nil && *err == nil {
		*err = classify(&filter.WriteError{Err: closeErr}, logger)
	}
}

// buildIndex indexes the words of args. A read fault leaves the words read so
// far in the index.
func buildIndex(ctx context.Context, cmd *cobra.Command, args []string,
	cfg *config.Config, logger *slog.Logger,
) (*words.Index, error) {
	src, err := openInput(ctx, cmd, args, cfg, logger)
	if err != nil {
		return nil, err
	}

	defer func() { _ = src.Close() }()

	idx, err := words.Build(ctx, src)
	if err := classify(err, logger); err != nil {
		return nil, err
	}

	logger.Debug("index built",
		slog.Int("distinct", idx.Distinct()),
		slog.Int64("total", idx.Total()),
	)

	return idx, nil
}

// ---------------------------------------------------------------------------
// words
// ---------------------------------------------------------------------------

type wordsOptions struct {
	output string
	limit  int
	lower  bool
}

func newWordsCommand() *cobra.Command {
	opts := &wordsOptions{}

	cmd := &cobra.Command{
		Use:   "words [flags] [file...]",
		Short: "Print the words of the filtered input, one per line",
		Long: `words filters its input and prints every word on its own line, in
order. A word is a run of ASCII letters; anything else separates words.`,
		Example: `  # First 100 words of a book, lower-cased
  textfilter words --lower --max 100 book.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWords(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.IntVar(&opts.limit, "max", 0, "stop after this many words (0: no limit)")
	f.BoolVar(&opts.lower, "lower", false, "print words in lower case")
	addDecompressFlag(cmd)

	return cmd
}

func runWords(ctx context.Context, cmd *cobra.Command, args []string, opts *wordsOptions) (err error) {
	if opts.limit < 0 {
		return &ExitError{Code: 2, Err: fmt.Errorf("--max must not be negative, got %d", opts.limit)}
	}

	if err := checkOutputNotInput(args, opts.output); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	src, err := openInput(ctx, cmd, args, cfg, logger)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	sink, err := openOutput(cmd, opts.output, logger)
	if err != nil {
		return err
	}

	defer closeSink(sink, &err, logger)

	count := 0

	walkErr := words.Walk(ctx, src, func(word string, _ int64) error {
		if opts.lower {
			word = strings.ToLower(word)
		}

		if _, err := io.WriteString(sink, word+"\n"); err != nil {
			return &filter.WriteError{Err: err}
		}

		count++
		if opts.limit > 0 && count >= opts.limit {
			return words.ErrStop
		}

		return nil
	})

	return classify(walkErr, logger)
}

// ---------------------------------------------------------------------------
// index
// ---------------------------------------------------------------------------

func newIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file> [word...]",
		Short: "Look up the positions of words in a text",
		Long: `index reads <file> through the filter and prints, for each word, the
1-based byte offsets where it starts. Lookups ignore case.

With no words on the command line, words to look up are read from standard
input one per line until an empty line or end of input.`,
		Example: `  textfilter index book.txt whale sea

  # Interactive lookups
  textfilter index book.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0], args[1:])
		},
	}

	addDecompressFlag(cmd)

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, file string, queries []string) (err error) {
	if file == input.Stdin && len(queries) == 0 {
		return &ExitError{Code: 2, Err: errors.New("words to look up must be given as arguments when the text is read from standard input")}
	}

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	idx, err := buildIndex(ctx, cmd, []string{file}, cfg, logger)
	if err != nil {
		return err
	}

	sink, err := openOutput(cmd, "", logger)
	if err != nil {
		return err
	}

	defer closeSink(sink, &err, logger)

	if len(queries) > 0 {
		missing := 0

		for _, q := range queries {
			found, err := writeLookup(sink, idx, q)
			if err != nil {
				return classify(err, logger)
			}

			if !found {
				missing++
			}
		}

		if missing > 0 {
			return &ExitError{Code: 1, Err: fmt.Errorf("%d of %d words not found", missing, len(queries))}
		}

		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			break
		}

		if _, err := writeLookup(sink, idx, q); err != nil {
			return classify(err, logger)
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("reading lookups failed; stopping", slog.String("error", err.Error()))
	}

	return nil
}

func writeLookup(w io.Writer, idx *words.Index, query string) (bool, error) {
	pos, ok := idx.Lookup(query)

	var line string
	if ok {
		parts := make([]string, len(pos))
		for i, p := range pos {
			parts[i] = strconv.FormatInt(p, 10)
		}

		line = fmt.Sprintf("%s: %s\n", query, strings.Join(parts, " "))
	} else {
		line = fmt.Sprintf("%s: not found\n", query)
	}

	if _, err := io.WriteString(w, line); err != nil {
		return ok, &filter.WriteError{Err: err}
	}

	return ok, nil
}

// ---------------------------------------------------------------------------
// top
// ---------------------------------------------------------------------------

type topOptions struct {
	rank   int
	count  int
	format string
}

func newTopCommand() *cobra.Command {
	opts := &topOptions{}

	cmd := &cobra.Command{
		Use:   "top [flags] [file...]",
		Short: "List the most common words",
		Long: `top ranks the words of the filtered input by frequency. Words that occur
equally often share a rank; rank 1 holds the most common words. Case is
ignored.

-k selects the first rank to print and -n how many ranks to print. A window
running past the last rank is shortened.`,
		Example: `  # The ten most common words
  textfilter top book.txt

  # Ranks 5 to 7 as JSON
  textfilter top -k 5 -n 3 --format json book.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTop(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.rank, "rank", "k", 1, "first rank to print (1-based)")
	f.IntVarP(&opts.count, "count", "n", 10, "number of ranks to print")
	f.StringVar(&opts.format, "format", report.FormatText, "output format: text, json, yaml")
	addDecompressFlag(cmd)

	return cmd
}

func runTop(ctx context.Context, cmd *cobra.Command, args []string, opts *topOptions) (err error) {
	switch {
	case opts.rank < 1:
		return &ExitError{Code: 2, Err: fmt.Errorf("--rank must be at least 1, got %d", opts.rank)}
	case opts.count < 1:
		return &ExitError{Code: 2, Err: fmt.Errorf("--count must be at least 1, got %d", opts.count)}
	}

	if err := report.ValidateFormat(opts.format); err != nil {
		return &ExitError{Code: 2, Err: err}
	}

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	idx, err := buildIndex(ctx, cmd, args, cfg, logger)
	if err != nil {
		return err
	}

	ranks, err := idx.Top(opts.rank, opts.count)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if len(ranks) < opts.count {
		logger.Debug("rank window shortened", slog.Int("requested", opts.count), slog.Int("printed", len(ranks)))
	}

	sink, err := openOutput(cmd, "", logger)
	if err != nil {
		return err
	}

	defer closeSink(sink, &err, logger)

	if opts.format == report.FormatText || opts.format == "" {
		for _, r := range ranks {
			if _, err := fmt.Fprintf(sink, "%d. %s (%d)\n", r.Rank, strings.Join(r.Words, " "), r.Frequency); err != nil {
				return classify(&filter.WriteError{Err: err}, logger)
			}
		}

		return nil
	}

	if err := report.Encode(sink, ranks, opts.format); err != nil {
		return classify(&filter.WriteError{Err: err}, logger)
	}

	return nil
}
