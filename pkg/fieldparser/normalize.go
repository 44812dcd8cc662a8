// Package fieldparser implements the Field Parser Stage: an LLM-port
// primary path with a deterministic regex fallback, per §4.3. The LLM
// port never fails the job; any failure or all-null response falls
// through to the regex extractors in this package.
package fieldparser

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

var nullish = map[string]bool{
	"null": true, "none": true, "n/a": true, "": true,
}

// Normalize trims, collapses internal whitespace, strips trailing
// punctuation, and converts the strings "null"/"none"/"n/a"/"" to nil.
// Normalize is idempotent.
func Normalize(raw string) *string {
	s := strings.TrimSpace(raw)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimRight(s, ".,;: ")
	if nullish[strings.ToLower(s)] {
		return nil
	}
	return &s
}
