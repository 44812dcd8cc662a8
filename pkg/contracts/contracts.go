// Package contracts validates the OCR, LLM, and Registry ports' JSON
// shapes against an OpenAPI document at process start, catching a
// port-implementation drift from the documented schema (§6) before it
// reaches the Dispatcher.
package contracts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator checks arbitrary JSON payloads against named schemas loaded
// from an OpenAPI document.
type Validator struct {
	doc *openapi3.T
}

// Load parses and validates the OpenAPI document at path.
func Load(ctx context.Context, path string) (*Validator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("contracts: load %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("contracts: invalid OpenAPI document %s: %w", path, err)
	}
	return &Validator{doc: doc}, nil
}

// ValidateSchema validates payload (arbitrary JSON-marshalable data)
// against the named component schema (e.g. "OCRBlock", "LLMResult",
// "CompanyProfile").
func (v *Validator) ValidateSchema(ctx context.Context, schemaName string, payload interface{}) error {
	schemaRef, ok := v.doc.Components.Schemas[schemaName]
	if !ok {
		return fmt.Errorf("contracts: unknown schema %q", schemaName)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("contracts: marshal payload for schema %q: %w", schemaName, err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("contracts: unmarshal payload for schema %q: %w", schemaName, err)
	}

	if err := schemaRef.Value.VisitJSON(decoded); err != nil {
		return fmt.Errorf("contracts: payload does not satisfy schema %q: %w", schemaName, err)
	}
	return nil
}
