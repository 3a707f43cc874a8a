// Package report renders the statistics of a filter run.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/textfilter/internal/filter"
)

// Supported report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report is the serialised form of a run.
type Report struct {
	Source string       `json:"source,omitempty" yaml:"source,omitempty"`
	Stats  filter.Stats `json:"stats" yaml:"stats"`
}

// ValidateFormat checks that format is supported. The empty string is
// accepted as FormatText.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be one of text, json, yaml", format)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r Report, format string) error {
	switch format {
	case FormatText, "":
		return writeText(w, r)
	default:
		return Encode(w, r, format)
	}
}

// Encode renders v as indented JSON or YAML.
func Encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}

		return enc.Close()
	default:
		if err := ValidateFormat(format); err != nil {
			return err
		}

		return fmt.Errorf("format %q has no structured encoding", format)
	}
}

func writeText(w io.Writer, r Report) error {
	source := r.Source
	if source == "" {
		source = "<stdin>"
	}

	_, err := fmt.Fprintf(w, "%s: %d bytes, %d passed, %d replaced (%.1f%%)\n",
		source, r.Stats.Bytes, r.Stats.Passed, r.Stats.Replaced, ratio(r.Stats))

	return err
}

func ratio(s filter.Stats) float64 {
	if s.Bytes == 0 {
		return 0
	}

	return 100 * float64(s.Replaced) / float64(s.Bytes)
}
