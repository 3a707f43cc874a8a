package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Supported decompression modes.
const (
	DecompressNone = "none"
	DecompressGzip = "gzip"
	DecompressZstd = "zstd"
	DecompressAuto = "auto"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ValidateMode checks that mode is a supported decompression mode.
// The empty string is accepted as DecompressNone.
func ValidateMode(mode string) error {
	switch mode {
	case "", DecompressNone, DecompressGzip, DecompressZstd, DecompressAuto:
		return nil
	default:
		return fmt.Errorf("invalid decompression mode %q: must be one of none, gzip, zstd, auto", mode)
	}
}

// Detect sniffs the leading bytes of r and reports the compression format.
// The returned reader replays the sniffed bytes.
func Detect(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", br, err
	}

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		return DecompressZstd, br, nil
	case bytes.HasPrefix(head, gzipMagic):
		return DecompressGzip, br, nil
	default:
		return DecompressNone, br, nil
	}
}

// decompress wraps r according to mode. The returned closer releases the
// decoder only; it never closes r.
func decompress(r io.Reader, mode string) (io.Reader, io.Closer, error) {
	if mode == DecompressAuto {
		detected, br, err := Detect(r)
		if err != nil {
			return nil, nil, fmt.Errorf("detecting compression: %w", err)
		}

		r, mode = br, detected
	}

	switch mode {
	case DecompressGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip stream: %w", err)
		}

		return zr, zr, nil
	case DecompressZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd stream: %w", err)
		}

		return zr, zr.IOReadCloser(), nil
	default:
		return r, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
