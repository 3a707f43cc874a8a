package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/textfilter/internal/filter"
)

// RunFunc performs one filter run and returns its statistics.
type RunFunc func(ctx context.Context) (filter.Stats, error)

// Options configures the watch behaviour.
type Options struct {
	// Files are the input files whose changes trigger a run.
	Files []string

	// Debounce is the quiet period before triggering a run.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status lines.
	Out io.Writer
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run performs an initial run, then re-runs fn after every relevant change to
// opts.Files. It blocks until ctx is cancelled or SIGINT/SIGTERM arrives.
//
// The parent directories of the files are watched rather than the files
// themselves so that editors which save by rename keep triggering runs.
func Run(ctx context.Context, opts Options, fn RunFunc) error {
	if len(opts.Files) == 0 {
		return errors.New("watch: no input files to watch")
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	targets, err := resolve(opts.Files)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for dir := range parentDirs(targets) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %d file(s) (debounce=%s)\n", len(targets), opts.Debounce)

	var mu sync.Mutex

	run := func(trigger string) {
		mu.Lock()
		defer mu.Unlock()

		if sigCtx.Err() != nil {
			return
		}

		doRun(sigCtx, opts, fn, trigger)
	}

	run("(initial)")

	debouncer := NewDebouncer(opts.Debounce, run)
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event, targets) {
				continue
			}

			opts.Logger.Debug("input changed",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun executes a single run and prints the status line.
func doRun(ctx context.Context, opts Options, fn RunFunc, trigger string) {
	now := time.Now().Format("15:04:05")

	stats, err := fn(ctx)
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s → ERROR: %v\n", now, trigger, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s → OK (%d bytes, %d replaced)\n",
		now, trigger, stats.Bytes, stats.Replaced)
}

// resolve converts files to a set of cleaned absolute paths.
func resolve(files []string) (map[string]struct{}, error) {
	targets := make(map[string]struct{}, len(files))

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving input file %q: %w", f, err)
		}

		targets[abs] = struct{}{}
	}

	return targets, nil
}

func parentDirs(targets map[string]struct{}) map[string]struct{} {
	dirs := make(map[string]struct{}, len(targets))

	for t := range targets {
		dirs[filepath.Dir(t)] = struct{}{}
	}

	return dirs
}

// isRelevant reports whether event touches one of the watched files.
func isRelevant(event fsnotify.Event, targets map[string]struct{}) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	_, ok := targets[abs]

	return ok
}
