package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// Sink is a buffered output destination.
type Sink struct {
	path      string
	file      *os.File
	w         *bufio.Writer
	autoFlush bool
	terminal  bool
	closed    bool
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger *slog.Logger
	stdout io.Writer
}

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStdout replaces os.Stdout as the standard output destination.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// Open returns a Sink for path. An empty path or "-" selects standard output,
// which is flushed on every Write so interactive use stays responsive.
// For files, parent directories are created as needed and an existing file is
// truncated after a warning; file output is buffered until Close.
func Open(path string, opts ...Option) (*Sink, error) {
	o := options{
		logger: slog.Default(),
		stdout: os.Stdout,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if path == "" || path == Stdout {
		return &Sink{
			path:      Stdout,
			w:         bufio.NewWriter(o.stdout),
			autoFlush: true,
			terminal:  isTerminal(o.stdout),
		}, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if _, err := os.Stat(path); err == nil {
		o.logger.Warn("overwriting existing file", slog.String("path", path))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("opening output %s: %w", path, err)
	}

	return &Sink{
		path:      path,
		file:      f,
		w:         bufio.NewWriter(f),
	}, nil
}

// Write buffers p, flushing immediately when auto-flush is enabled.
func (s *Sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}

	n, err := s.w.Write(p)
	if err != nil {
		return n, err
	}

	if s.autoFlush {
		if err := s.w.Flush(); err != nil {
			return n, err
		}
	}

	return n, nil
}

// Flush writes any buffered data to the destination.
func (s *Sink) Flush() error {
	if s.closed {
		return os.ErrClosed
	}

	return s.w.Flush()
}

// Close flushes buffered data and closes the file. Standard output is left
// open. Close is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	flushErr := s.w.Flush()

	if s.file == nil {
		return flushErr
	}

	closeErr := s.file.Close()

	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("closing output %s: %w", s.path, err)
	}

	return nil
}

// Path returns the output path, or "-" for standard output.
func (s *Sink) Path() string {
	return s.path
}

// IsTerminal reports whether the sink writes to an interactive terminal.
// Files and pipes are never terminals.
func (s *Sink) IsTerminal() bool {
	return s.terminal
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
