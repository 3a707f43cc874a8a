package filter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCopy_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		replaced int64
	}{
		{"hello world", "Hello, World! 123", "Hello  World     ", 5},
		{"tab", "a\tb\nc", "a b\nc", 1},
		{"empty", "", "", 0},
		{"0xff x5", strings.Repeat("\xff", 5), "     ", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			stats, err := Copy(context.Background(), &out, strings.NewReader(tt.in))
			require.NoError(t, err)

			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, int64(len(tt.in)), stats.Bytes)
			assert.Equal(t, tt.replaced, stats.Replaced)
			assert.Equal(t, stats.Bytes, stats.Passed+stats.Replaced)
		})
	}
}

func TestCopy_OneByteReads(t *testing.T) {
	var out bytes.Buffer

	in := "one byte, at a time!\n"
	stats, err := Copy(context.Background(), &out, iotest.OneByteReader(strings.NewReader(in)))
	require.NoError(t, err)

	assert.Equal(t, String(in), out.String())
	assert.Equal(t, int64(len(in)), stats.Bytes)
}

func TestCopy_DataWithEOF(t *testing.T) {
	var out bytes.Buffer

	_, err := Copy(context.Background(), &out, iotest.DataErrReader(strings.NewReader("ab#")))
	require.NoError(t, err)
	assert.Equal(t, "ab ", out.String())
}

func TestCopyBuffer_SmallBuffer(t *testing.T) {
	var out bytes.Buffer

	in := strings.Repeat("x1y2\n", 100)
	stats, err := CopyBuffer(context.Background(), &out, strings.NewReader(in), make([]byte, 6))
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("x y \n", 100), out.String())
	assert.Equal(t, int64(200), stats.Replaced)
}

func TestCopy_ReadFaultKeepsPrefix(t *testing.T) {
	var out bytes.Buffer

	src := io.MultiReader(strings.NewReader("ok!"), iotest.ErrReader(errBoom))
	stats, err := Copy(context.Background(), &out, src)
	require.Error(t, err)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "reading input")

	assert.Equal(t, "ok ", out.String())
	assert.Equal(t, int64(3), stats.Bytes)
}

type failingWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.limit <= 0 {
		return 0, errBoom
	}

	if len(p) > w.limit {
		n, _ := w.buf.Write(p[:w.limit])
		w.limit = 0

		return n, errBoom
	}

	w.limit -= len(p)

	return w.buf.Write(p)
}

func TestCopy_WriteFault(t *testing.T) {
	w := &failingWriter{limit: 4}

	stats, err := Copy(context.Background(), w, strings.NewReader("ab,,cd"))
	require.Error(t, err)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, "ab  ", w.buf.String())
	assert.Equal(t, int64(4), stats.Bytes)
	assert.Equal(t, int64(2), stats.Passed)
	assert.Equal(t, int64(2), stats.Replaced)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	return len(p) - 1, nil
}

func TestCopy_ShortWrite(t *testing.T) {
	_, err := Copy(context.Background(), shortWriter{}, strings.NewReader("abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestCopy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer

	_, err := Copy(ctx, &out, strings.NewReader("abc"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

// cancellingReader yields data once, then cancels its context and reports
// the cancellation as its read error.
type cancellingReader struct {
	ctx    context.Context
	cancel context.CancelFunc
	data   string
	done   bool
}

func (r *cancellingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}

	r.cancel()

	return 0, r.ctx.Err()
}

func TestCopy_CancelledDuringRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer

	stats, err := Copy(ctx, &out, &cancellingReader{ctx: ctx, cancel: cancel, data: "ab!"})
	require.ErrorIs(t, err, context.Canceled)

	var readErr *ReadError
	assert.False(t, errors.As(err, &readErr), "cancellation must not look like a read fault")
	assert.Equal(t, "ab ", out.String())
	assert.Equal(t, int64(3), stats.Bytes)
}

func TestStats_Add(t *testing.T) {
	s := Stats{Bytes: 3, Passed: 2, Replaced: 1}
	s.Add(Stats{Bytes: 5, Passed: 1, Replaced: 4})

	assert.Equal(t, Stats{Bytes: 8, Passed: 3, Replaced: 5}, s)
}
