package filter

import "io"

// Reader yields the filtered bytes of an underlying reader.
type Reader struct {
	r     io.Reader
	stats Stats
}

// NewReader returns a Reader that filters r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read reads from the underlying reader and filters p[:n] in place.
func (fr *Reader) Read(p []byte) (int, error) {
	n, err := fr.r.Read(p)
	if n > 0 {
		fr.stats.record(n, Apply(p[:n]))
	}

	return n, err
}

// Stats returns the statistics for the bytes read so far.
func (fr *Reader) Stats() Stats {
	return fr.stats
}

// Writer filters bytes before passing them to an underlying writer.
// The caller's slice is never modified.
type Writer struct {
	w     io.Writer
	buf   []byte
	stats Stats
}

// NewWriter returns a Writer that filters into w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write filters p and writes the result to the underlying writer.
func (fw *Writer) Write(p []byte) (int, error) {
	if cap(fw.buf) < len(p) {
		fw.buf = make([]byte, len(p))
	}

	out := fw.buf[:len(p)]
	copy(out, p)
	Apply(out)

	n, err := fw.w.Write(out)
	if n > 0 {
		fw.stats.record(n, countDisallowed(p[:n]))
	}

	return n, err
}

// Stats returns the statistics for the bytes written so far.
func (fw *Writer) Stats() Stats {
	return fw.stats
}
