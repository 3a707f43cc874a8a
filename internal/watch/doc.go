// Package watch re-runs the filter whenever one of its input files changes.
// Events are debounced so that an editor's save burst produces a single run,
// and runs never overlap.
package watch
