// Package anthropic implements the Field Parser Stage's LLM port against
// the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/llm"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Client implements llm.Port using the Anthropic Messages API with a
// structured-output instruction embedded in the prompt.
type Client struct {
	client  anthropicsdk.Client
	model   string
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a Client for the given API key and model.
func NewClient(apiKey, model string, log *zap.Logger) *Client {
	return &Client{
		client: anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm-anthropic",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
		}),
	}
}

// Extract sends prompt to the Messages API and parses the response as the
// schema's field set. Any failure (including circuit-open) returns
// (nil, err); the Field Parser Stage treats that the same as an
// all-null response and falls back to the regex path.
func (c *Client) Extract(ctx context.Context, prompt string, schema llm.Schema, timeout time.Duration) (*llm.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		message, err := c.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
			Model:     anthropicsdk.Model(c.model),
			MaxTokens: 1024,
			Messages: []anthropicsdk.MessageParam{
				anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return nil, err
		}
		if len(message.Content) == 0 {
			return nil, sharederrors.FailedTo("parse anthropic response", nil)
		}
		return message.Content[0].Text, nil
	})
	if err != nil {
		c.log.Warn("anthropic llm port failed, falling back to regex extraction", zap.Error(err))
		return nil, err
	}

	return parseResult(raw.(string), schema)
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
