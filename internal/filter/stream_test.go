package filter

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader("Hello, World! 123"))

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Equal(t, "Hello  World     ", string(got))
	assert.Equal(t, Stats{Bytes: 17, Passed: 12, Replaced: 5}, r.Stats())
}

func TestReader_PassesIOTest(t *testing.T) {
	in := "abc 123\n\x00\xff"
	require.NoError(t, iotest.TestReader(NewReader(strings.NewReader(in)), []byte(String(in))))
}

func TestWriter(t *testing.T) {
	var out bytes.Buffer

	w := NewWriter(&out)
	p := []byte("a\tb\nc")

	n, err := w.Write(p)
	require.NoError(t, err)

	assert.Equal(t, len(p), n)
	assert.Equal(t, "a b\nc", out.String())
	assert.Equal(t, "a\tb\nc", string(p), "caller slice must not be modified")
	assert.Equal(t, Stats{Bytes: 5, Passed: 4, Replaced: 1}, w.Stats())
}

func TestWriter_MultipleWrites(t *testing.T) {
	var out bytes.Buffer

	w := NewWriter(&out)

	for _, chunk := range []string{"12", "ab", "", "long chunk: 42\n"} {
		_, err := io.WriteString(w, chunk)
		require.NoError(t, err)
	}

	assert.Equal(t, "  ablong chunk    \n", out.String())
	assert.Equal(t, int64(19), w.Stats().Bytes)
}

func TestWriter_PropagatesError(t *testing.T) {
	w := NewWriter(&failingWriter{limit: 2})

	n, err := w.Write([]byte("a1b2"))
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, n)
	assert.Equal(t, Stats{Bytes: 2, Passed: 1, Replaced: 1}, w.Stats())
}
