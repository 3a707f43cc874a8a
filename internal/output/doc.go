// Package output provides the destination side of a filter run.
//
// A [Sink] is either standard output or a file. Sinks are buffered and must
// be closed: Close flushes pending bytes and releases the file on every exit
// path, while standard output is flushed but never closed.
//
// [IsBrokenPipe] lets callers end quietly when a downstream consumer such as
// head(1) stops reading.
package output
