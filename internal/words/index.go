package words

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrRankOutOfRange is returned by Index.Top for a rank with no words.
var ErrRankOutOfRange = errors.New("rank out of range")

// Index maps each lowercased word to the positions where it starts.
type Index struct {
	positions map[string][]int64
	words     int64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{positions: make(map[string][]int64)}
}

// Build indexes every word read from r. On a read fault the returned index
// holds the words read before it, alongside the error from Walk.
func Build(ctx context.Context, r io.Reader) (*Index, error) {
	idx := NewIndex()

	err := Walk(ctx, r, func(word string, pos int64) error {
		idx.Add(word, pos)
		return nil
	})

	return idx, err
}

// Add records an occurrence of word at pos. Case is folded.
func (x *Index) Add(word string, pos int64) {
	key := strings.ToLower(word)
	x.positions[key] = append(x.positions[key], pos)
	x.words++
}

// Lookup returns the positions of word in ascending order, ignoring case.
// The second result is false when the word does not occur.
func (x *Index) Lookup(word string) ([]int64, bool) {
	pos, ok := x.positions[strings.ToLower(word)]
	return pos, ok
}

// Distinct returns the number of distinct words.
func (x *Index) Distinct() int {
	return len(x.positions)
}

// Total returns the number of words indexed, counting repeats.
func (x *Index) Total() int64 {
	return x.words
}

// Rank groups the words that share one frequency.
type Rank struct {
	Rank      int      `json:"rank" yaml:"rank"`
	Frequency int      `json:"frequency" yaml:"frequency"`
	Words     []string `json:"words" yaml:"words"`
}

// Ranks returns the distinct frequencies in descending order, each with its
// words sorted alphabetically. Rank 1 holds the most common words.
func (x *Index) Ranks() []Rank {
	byFreq := make(map[int][]string)

	for word, pos := range x.positions {
		byFreq[len(pos)] = append(byFreq[len(pos)], word)
	}

	freqs := make([]int, 0, len(byFreq))
	for f := range byFreq {
		freqs = append(freqs, f)
	}

	slices.Sort(freqs)
	slices.Reverse(freqs)

	ranks := make([]Rank, len(freqs))
	for i, f := range freqs {
		words := byFreq[f]
		slices.Sort(words)
		ranks[i] = Rank{Rank: i + 1, Frequency: f, Words: words}
	}

	return ranks
}

// Top returns n ranks starting at the 1-based rank k. A window running past
// the last rank is shortened.
func (x *Index) Top(k, n int) ([]Rank, error) {
	if n < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", n)
	}

	ranks := x.Ranks()
	if k < 1 || k > len(ranks) {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrRankOutOfRange, k, len(ranks))
	}

	return ranks[k-1 : min(k-1+n, len(ranks))], nil
}
