// Package llm defines the Field Parser Stage's LLM port: a strict
// nullable-field schema per variant and a Port interface three concrete
// backends (anthropic, bedrock, langchain) implement. The port returns nil
// on any failure; the stage never throws on LLM absence (§4.3, §6).
package llm

import (
	"context"
	"time"

	"github.com/merchantiq/docverify/pkg/domain"
)

// Schema selects which of the three strict nullable-field schemas a call
// to Extract should request.
type Schema string

const (
	SchemaCompany  Schema = "company"
	SchemaVAT      Schema = "vat"
	SchemaDirector Schema = "director"
)

// Result is a tagged union mirroring the three variant field schemas. Only
// the field matching the requested Schema is populated by a well-behaved
// backend.
type Result struct {
	Company  *domain.CompanyFields
	VAT      *domain.VATFields
	Director *domain.DirectorFields
}

// Port is the Field Parser Stage's external LLM dependency. Extract never
// returns an error to the caller for an upstream failure; it returns
// (nil, err) only so callers can log the cause, and the stage always
// treats a nil Result the same as a well-formed all-null one.
type Port interface {
	Extract(ctx context.Context, prompt string, schema Schema, timeout time.Duration) (*Result, error)
}

// TruncatePrompt implements the "first 2000 + last 1000 with an ellipsis
// marker" truncation rule for raw_text longer than 3000 characters.
func TruncatePrompt(rawText string) string {
	const maxLen = 3000
	const headLen = 2000
	const tailLen = 1000
	if len(rawText) <= maxLen {
		return rawText
	}
	return rawText[:headLen] + "\n...[truncated]...\n" + rawText[len(rawText)-tailLen:]
}
