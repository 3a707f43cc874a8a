// Package filter implements the byte filter at the heart of textfilter.
//
// ASCII letters, spaces and newlines pass through unchanged; every other byte
// value is replaced by a single space. The rule is total over all 256 byte
// values, so output length always equals input length and filtering is
// idempotent.
//
// The package offers the rule itself ([Allowed], [Map]), slice helpers
// ([Apply], [Bytes], [String]), a streaming [Copy], and [Reader] / [Writer]
// adapters for composing the filter with other io plumbing.
package filter
