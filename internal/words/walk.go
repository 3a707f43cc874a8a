// Package words splits filtered text into words, indexes where each word
// occurs and ranks words by how often they occur.
//
// A word is a maximal run of ASCII letters in the filtered stream. Positions
// are 1-based byte offsets into that stream; because the filter preserves
// length they are also offsets into the raw input.
package words

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/hupe1980/textfilter/internal/filter"
)

// ErrStop can be returned by a WalkFunc to end Walk early without an error.
var ErrStop = errors.New("words: stop")

// WalkFunc is called by Walk for every word with the offset of its first byte.
type WalkFunc func(word string, pos int64) error

// Walk reads r through the byte filter and calls fn for each word in order.
//
// A read fault ends the walk after the words read so far, and is returned as
// *filter.ReadError. ctx is checked between chunks.
func Walk(ctx context.Context, r io.Reader, fn WalkFunc) error {
	src := filter.NewReader(r)
	buf := make([]byte, filter.DefaultBufferSize)

	var (
		word  []byte
		start int64
		off   int64
	)

	flush := func() error {
		if len(word) == 0 {
			return nil
		}

		err := fn(string(word), start)
		word = word[:0]

		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := src.Read(buf)

		for _, b := range buf[:n] {
			off++

			if b == filter.Replacement || b == '\n' {
				if err := flush(); err != nil {
					return stopped(err)
				}

				continue
			}

			if len(word) == 0 {
				start = off
			}

			word = append(word, b)
		}

		if rerr == nil {
			continue
		}

		if err := flush(); err != nil {
			return stopped(err)
		}

		if errors.Is(rerr, io.EOF) {
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(rerr, ctxErr) {
			return ctxErr
		}

		return &filter.ReadError{Err: rerr}
	}
}

func stopped(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}

	return err
}

// Split returns the words of s.
func Split(s string) []string {
	return strings.FieldsFunc(filter.String(s), func(r rune) bool {
		return r == rune(filter.Replacement) || r == '\n'
	})
}
