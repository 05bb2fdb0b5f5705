// Package fileanalyzer orchestrates per-file analysis: read, parse,
// attach churn/ownership, and produce a model.File (SPEC_FULL.md §4.9).
package fileanalyzer

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ReadLossyUTF8 reads path and decodes it to a string. Valid UTF-8 passes
// through unchanged; invalid byte sequences are decoded lossily via
// golang.org/x/text/encoding/unicode's UTF8 transform (replacement
// character) rather than dropped, per SPEC_FULL.md §4.1. This is the
// teacher's go.mod's first caller of golang.org/x/text.
func ReadLossyUTF8(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoder := unicode.UTF8.NewDecoder()
	decoded, err := decoder.Bytes(raw)
	if err != nil {
		// The UTF8 decoder does not itself error on malformed input when
		// used without a BOM policy; this branch guards future transform
		// changes rather than an observed failure mode.
		return strings.ToValidUTF8(string(raw), "�"), nil
	}
	return string(decoded), nil
}

// CountLines returns the number of lines in content, matching the `loc`
// KPI's definition (a trailing newline does not add a phantom final line).
func CountLines(content string) int {
	if content == "" {
		return 0
	}
	lines := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lines++
	}
	return lines
}
