// Package bedrock implements the Field Parser Stage's LLM port against an
// AWS Bedrock foundation model, reusing the same aws-sdk-go-v2 config
// plumbing the OCR port's awsocr backend uses for credential resolution.
package bedrock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/llm"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Client implements llm.Port against a Bedrock-hosted model via
// InvokeModel.
type Client struct {
	api     *bedrockruntime.Client
	modelID string
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a Client from an already-resolved aws.Config (see
// internal/awsconfig, shared with pkg/ocr/awsocr).
func NewClient(cfg aws.Config, modelID string, log *zap.Logger) *Client {
	return &Client{
		api:     bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		log:     log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm-bedrock",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
		}),
	}
}

type invokeRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

type invokeResponse struct {
	Completion string `json:"completion"`
}

// Extract invokes the Bedrock model and parses its completion as the
// schema's field set.
func (c *Client) Extract(ctx context.Context, prompt string, schema llm.Schema, timeout time.Duration) (*llm.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(invokeRequest{Prompt: prompt, MaxTokens: 1024, Temperature: 0})
	if err != nil {
		return nil, err
	}

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(c.modelID),
			ContentType: aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, err
		}
		var resp invokeResponse
		if err := json.Unmarshal(out.Body, &resp); err != nil {
			return nil, err
		}
		return resp.Completion, nil
	})
	if err != nil {
		c.log.Warn("bedrock llm port failed, falling back to regex extraction", zap.Error(err))
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
