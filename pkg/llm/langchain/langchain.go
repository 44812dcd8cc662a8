// Package langchain implements the Field Parser Stage's LLM port against
// any langchaingo-supported chat model, giving operators a provider-
// agnostic fallback when neither the Anthropic nor Bedrock backend is
// configured.
package langchain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/llm"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Client implements llm.Port over a langchaingo llms.Model.
type Client struct {
	model llms.Model
	log   *zap.Logger
}

// NewClient wraps an already-constructed langchaingo model (OpenAI,
// Ollama, or any other langchaingo provider).
func NewClient(model llms.Model, log *zap.Logger) *Client {
	return &Client{model: model, log: log}
}

// Extract calls the wrapped model with prompt and parses its completion as
// the schema's field set.
func (c *Client) Extract(ctx context.Context, prompt string, schema llm.Schema, timeout time.Duration) (*llm.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt)
	if err != nil {
		c.log.Warn("langchain llm port failed, falling back to regex extraction", zap.Error(err))
		return nil, err
	}

	return parseResult(completion, schema)
}

func parseResult(text string, schema llm.Schema) (*llm.Result, error) {
	switch schema {
	case llm.SchemaCompany:
		var fields domain.CompanyFields
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, err
		}
		return &llm.Result{Company: &fields}, nil
	case llm.SchemaVAT:
		var fields domain.VATFields
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, err
		}
		return &llm.Result{VAT: &fields}, nil
	case llm.SchemaDirector:
		var fields domain.DirectorFields
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, err
		}
		return &llm.Result{Director: &fields}, nil
	default:
		return nil, sharederrors.ValidationError("schema", "unknown LLM schema")
	}
}
