// Package textfilter provides a public Go API for the textfilter byte filter.
//
// ASCII letters, spaces and newlines pass through unchanged; every other byte
// is replaced by a space, so output length always equals input length.
//
// Basic usage:
//
//	clean := textfilter.String("Hello, World! 123") // "Hello  World     "
//
// Streaming:
//
//	stats, err := textfilter.Filter(ctx, os.Stdout, os.Stdin)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Fprintf(os.Stderr, "%d bytes replaced\n", stats.Replaced)
package textfilter

import (
	"context"
	"io"

	"github.com/hupe1980/textfilter/internal/filter"
	"github.com/hupe1980/textfilter/internal/words"
)

// Stats summarises a filter run.
type Stats = filter.Stats

// ReadError reports a fault on the input stream; all bytes read before it
// have been written.
type ReadError = filter.ReadError

// WriteError reports a fault on the output stream.
type WriteError = filter.WriteError

// Index maps lowercased words to the 1-based offsets where they start.
type Index = words.Index

// Rank groups the words that share one frequency.
type Rank = words.Rank

// Filter copies src to dst, replacing every byte that is not an ASCII letter,
// space or newline with a space. It returns when src reports io.EOF, when a
// read or write fails, or when ctx is cancelled.
//
// Unlike the command line tool, Filter reports read faults to the caller as
// *ReadError instead of treating them as end-of-stream.
func Filter(ctx context.Context, dst io.Writer, src io.Reader) (Stats, error) {
	return filter.Copy(ctx, dst, src)
}

// Allowed reports whether b passes through the filter unchanged.
func Allowed(b byte) bool {
	return filter.Allowed(b)
}

// Bytes returns a filtered copy of p.
func Bytes(p []byte) []byte {
	return filter.Bytes(p)
}

// String returns the filtered form of s.
func String(s string) string {
	return filter.String(s)
}

// NewReader returns an io.Reader that yields the filtered bytes of r.
func NewReader(r io.Reader) io.Reader {
	return filter.NewReader(r)
}

// NewWriter returns an io.Writer that filters bytes before writing them to w.
func NewWriter(w io.Writer) io.Writer {
	return filter.NewWriter(w)
}

// Words returns the words of s: the runs of ASCII letters left after
// filtering.
func Words(s string) []string {
	return words.Split(s)
}

// BuildIndex reads r through the filter and indexes every word. A read fault
// is returned as *ReadError together with the words indexed before it.
func BuildIndex(ctx context.Context, r io.Reader) (*Index, error) {
	return words.Build(ctx, r)
}
