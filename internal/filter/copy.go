package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultBufferSize is the chunk size used by [Copy].
const DefaultBufferSize = 32 * 1024

// Stats summarises a single filter run.
type Stats struct {
	// Bytes is the number of bytes read, which always equals bytes written.
	Bytes int64 `json:"bytes" yaml:"bytes"`
	// Passed is the number of bytes written unchanged.
	Passed int64 `json:"passed" yaml:"passed"`
	// Replaced is the number of bytes replaced by a space.
	Replaced int64 `json:"replaced" yaml:"replaced"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Bytes += other.Bytes
	s.Passed += other.Passed
	s.Replaced += other.Replaced
}

func (s *Stats) record(n, replaced int) {
	s.Bytes += int64(n)
	s.Replaced += int64(replaced)
	s.Passed += int64(n - replaced)
}

// ReadError reports a fault on the input stream. Every byte read before the
// fault has already been written.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("reading input: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a fault on the output stream.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("writing output: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// Copy reads src until end-of-stream and writes the filtered bytes to dst,
// one output byte per input byte. Data is written as soon as it is read, so
// interactive input is echoed without waiting for end-of-stream.
//
// io.EOF ends the run with a nil error. Read faults are returned as
// *ReadError and write faults as *WriteError; in both cases the returned
// Stats cover everything written so far. ctx is checked between chunks, and
// a read that fails because ctx ended returns ctx.Err() unwrapped.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) (Stats, error) {
	return CopyBuffer(ctx, dst, src, nil)
}

// CopyBuffer is like [Copy] but stages data through buf. A nil or empty buf
// allocates one of DefaultBufferSize. Half of buf holds raw input and the
// other half the filtered bytes, so a partial write can still be accounted
// exactly.
func CopyBuffer(ctx context.Context, dst io.Writer, src io.Reader, buf []byte) (Stats, error) {
	if len(buf) < 2 {
		buf = make([]byte, 2*DefaultBufferSize)
	}

	half := len(buf) / 2
	in, out := buf[:half], buf[half:2*half]

	var stats Stats

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		n, rerr := src.Read(in)
		if n > 0 {
			replaced := 0

			for i, b := range in[:n] {
				out[i] = Map(b)
				if out[i] != b {
					replaced++
				}
			}

			written, werr := dst.Write(out[:n])
			if written < n {
				replaced = countDisallowed(in[:written])
			}

			stats.record(written, replaced)

			if werr != nil {
				return stats, &WriteError{Err: werr}
			}

			if written != n {
				return stats, &WriteError{Err: io.ErrShortWrite}
			}
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return stats, nil
			}

			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(rerr, ctxErr) {
				return stats, ctxErr
			}

			return stats, &ReadError{Err: rerr}
		}
	}
}

func countDisallowed(p []byte) int {
	count := 0

	for _, b := range p {
		if !Allowed(b) {
			count++
		}
	}

	return count
}
