// Package input opens the byte stream consumed by the filter: standard input
// or a sequence of files read back to back, optionally decompressed.
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// OpenError reports a source that could not be opened or decoded. Unlike a
// fault in the middle of a stream, it means no byte of that source was read.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string { return fmt.Sprintf("opening input %q: %v", e.Source, e.Err) }

func (e *OpenError) Unwrap() error { return e.Err }

// Options configures Open.
type Options struct {
	// Decompress selects the decompression mode for every source.
	Decompress string

	// Stdin overrides os.Stdin. Used by tests and the CLI's cmd.InOrStdin().
	Stdin io.Reader

	// Logger receives debug messages as sources are opened and closed.
	Logger *slog.Logger
}

// Open returns a reader over paths in order. An empty paths slice or a path
// of "-" reads standard input, which is never closed.
//
// Files are checked up front so that a missing file fails before any output
// is produced, but each one is only opened when the previous one is
// exhausted. Close releases whatever source is still open.
func Open(ctx context.Context, paths []string, opts Options) (io.ReadCloser, error) {
	if err := ValidateMode(opts.Decompress); err != nil {
		return nil, err
	}

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if len(paths) == 0 {
		paths = []string{Stdin}
	}

	for _, p := range paths {
		if p == Stdin {
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, &OpenError{Source: p, Err: err}
		}

		if info.IsDir() {
			return nil, &OpenError{Source: p, Err: errors.New("is a directory")}
		}
	}

	return &multiReader{ctx: ctx, paths: paths, opts: opts}, nil
}

// multiReader concatenates sources, opening each lazily.
type multiReader struct {
	ctx   context.Context
	paths []string
	opts  Options

	next    int
	name    string
	cur     io.Reader
	closers []io.Closer
}

func (m *multiReader) Read(p []byte) (int, error) {
	for {
		if m.cur == nil {
			if m.next >= len(m.paths) {
				return 0, io.EOF
			}

			if err := m.ctx.Err(); err != nil {
				return 0, err
			}

			if err := m.openNext(); err != nil {
				return 0, err
			}
		}

		n, err := m.cur.Read(p)
		if errors.Is(err, io.EOF) {
			closeErr := m.closeCurrent()
			if n > 0 {
				return n, nil
			}

			if closeErr != nil {
				return 0, closeErr
			}

			continue
		}

		if err != nil {
			return n, fmt.Errorf("%s: %w", m.name, err)
		}

		return n, nil
	}
}

func (m *multiReader) openNext() error {
	path := m.paths[m.next]
	m.next++

	var (
		raw     io.Reader
		closers []io.Closer
	)

	if path == Stdin {
		m.name = "<stdin>"
		raw = m.opts.Stdin
	} else {
		m.name = path

		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return &OpenError{Source: path, Err: err}
		}

		raw = f
		closers = append(closers, f)
	}

	r, dc, err := decompress(raw, m.opts.Decompress)
	if err != nil {
		_ = closeAll(closers)
		return &OpenError{Source: m.name, Err: err}
	}

	// Decoder first, then the file beneath it.
	m.closers = append([]io.Closer{dc}, closers...)
	m.cur = r

	m.opts.Logger.Debug("input opened",
		slog.String("source", m.name),
		slog.String("decompress", m.opts.Decompress),
	)

	return nil
}

func (m *multiReader) closeCurrent() error {
	err := closeAll(m.closers)
	m.closers = nil
	m.cur = nil

	if err != nil {
		return fmt.Errorf("closing %s: %w", m.name, err)
	}

	m.opts.Logger.Debug("input exhausted", slog.String("source", m.name))

	return nil
}

// Close releases the current source, if any. Remaining paths are not read.
func (m *multiReader) Close() error {
	m.next = len(m.paths)

	if m.cur == nil {
		return nil
	}

	return m.closeCurrent()
}

func closeAll(closers []io.Closer) error {
	var errs []error

	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
