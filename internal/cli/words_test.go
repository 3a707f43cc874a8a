package cli

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/textfilter/internal/words"
)

const wordsSample = "Hello, World! hello\nworld again"

// faultyInput yields text and then fails like a vanished device.
func faultyInput(text string) io.Reader {
	return io.MultiReader(strings.NewReader(text), iotest.ErrReader(errors.New("device gone")))
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

// ---------------------------------------------------------------------------
// words
// ---------------------------------------------------------------------------

func TestWords_Stdin(t *testing.T) {
	stdout, _, err := executeCommandWithInput(strings.NewReader("Hello, World! 123\nbye"), "words")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nWorld\nbye\n", stdout)
}

func TestWords_LowerAndMax(t *testing.T) {
	stdout, _, err := executeCommandWithInput(strings.NewReader(wordsSample), "words", "--lower", "--max", "3")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\nhello\n", stdout)
}

func TestWords_NegativeMax(t *testing.T) {
	_, _, err := executeCommand("words", "--max", "-1")
	requireExitCode(t, err, 2)
}

func TestWords_CompressedFileToOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt.gz")

	f, err := os.Create(in) //nolint:gosec // test
	require.NoError(t, err)

	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("one two; three"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "words.txt")

	_, _, err = executeCommand("words", "--decompress", "auto", "-o", out, in)
	require.NoError(t, err)

	got, err := os.ReadFile(out) //nolint:gosec // test
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(got))
}

func TestWords_ReadFaultIsEndOfStream(t *testing.T) {
	stdout, stderr, err := executeCommandWithInput(faultyInput("ab cd"), "words")
	require.NoError(t, err)
	assert.Equal(t, "ab\ncd\n", stdout)
	assert.Contains(t, stderr, "treating as end of stream")
}

// ---------------------------------------------------------------------------
// index
// ---------------------------------------------------------------------------

func TestIndex_Arguments(t *testing.T) {
	in := writeInput(t, t.TempDir(), "text.txt", wordsSample)

	stdout, _, err := executeCommand("index", in, "hello", "WORLD", "again")
	require.NoError(t, err)
	assert.Equal(t, "hello: 1 15\nWORLD: 8 21\nagain: 27\n", stdout)
}

func TestIndex_MissingWordExitsOne(t *testing.T) {
	in := writeInput(t, t.TempDir(), "text.txt", wordsSample)

	stdout, _, err := executeCommand("index", in, "hello", "whale")
	requireExitCode(t, err, 1)
	assert.Equal(t, "hello: 1 15\nwhale: not found\n", stdout)
}

func TestIndex_InteractiveStopsAtEmptyLine(t *testing.T) {
	in := writeInput(t, t.TempDir(), "text.txt", wordsSample)

	stdout, _, err := executeCommandWithInput(strings.NewReader("hello\n  Again \nwhale\n\nworld\n"), "index", in)
	require.NoError(t, err)
	assert.Equal(t, "hello: 1 15\nAgain: 27\nwhale: not found\n", stdout)
}

func TestIndex_StdinTextNeedsWords(t *testing.T) {
	_, _, err := executeCommand("index", "-")
	requireExitCode(t, err, 2)

	stdout, _, err := executeCommandWithInput(strings.NewReader(wordsSample), "index", "-", "world")
	require.NoError(t, err)
	assert.Equal(t, "world: 8 21\n", stdout)
}

func TestIndex_MissingFileExitsOne(t *testing.T) {
	_, _, err := executeCommand("index", "/nonexistent/textfilter/text.txt", "a")
	requireExitCode(t, err, 1)
}

func TestIndex_RequiresFile(t *testing.T) {
	_, _, err := executeCommand("index")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// top
// ---------------------------------------------------------------------------

func TestTop_Text(t *testing.T) {
	in := writeInput(t, t.TempDir(), "text.txt", wordsSample)

	stdout, _, err := executeCommand("top", in)
	require.NoError(t, err)
	assert.Equal(t, "1. hello world (2)\n2. again (1)\n", stdout)
}

func TestTop_Window(t *testing.T) {
	stdout, _, err := executeCommandWithInput(strings.NewReader(wordsSample), "top", "-k", "2", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, "2. again (1)\n", stdout)
}

func TestTop_JSON(t *testing.T) {
	stdout, _, err := executeCommandWithInput(strings.NewReader(wordsSample), "top", "--format", "json")
	require.NoError(t, err)

	var ranks []words.Rank
	require.NoError(t, json.Unmarshal([]byte(stdout), &ranks))
	require.Len(t, ranks, 2)
	assert.Equal(t, words.Rank{Rank: 1, Frequency: 2, Words: []string{"hello", "world"}}, ranks[0])
}

func TestTop_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"rank past the end", []string{"top", "-k", "3"}, 1},
		{"rank zero", []string{"top", "-k", "0"}, 2},
		{"count zero", []string{"top", "-n", "0"}, 2},
		{"bad format", []string{"top", "--format", "xml"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommandWithInput(strings.NewReader(wordsSample), tt.args...)
			requireExitCode(t, err, tt.code)
		})
	}
}
