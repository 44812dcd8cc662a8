package contracts

import (
	"context"
	"path/filepath"
	"testing"
)

func loadTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := Load(context.Background(), filepath.Join(".", "openapi.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return v
}

func TestValidateSchemaAcceptsWellFormedOCRBlock(t *testing.T) {
	v := loadTestValidator(t)

	block := map[string]interface{}{
		"text":       "ACME LTD",
		"confidence": 92.5,
		"page":       0,
		"bbox":       map[string]interface{}{"top": 0.1, "left": 0.2, "width": 0.3, "height": 0.05},
	}

	if err := v.ValidateSchema(context.Background(), "OCRBlock", block); err != nil {
		t.Fatalf("expected a well-formed OCRBlock to validate, got %v", err)
	}
}

func TestValidateSchemaRejectsMissingRequiredField(t *testing.T) {
	v := loadTestValidator(t)

	block := map[string]interface{}{
		"text": "ACME LTD",
		"page": 0,
	}

	if err := v.ValidateSchema(context.Background(), "OCRBlock", block); err == nil {
		t.Fatal("expected a block missing confidence/bbox to fail validation")
	}
}

func TestValidateSchemaRejectsUnknownSchema(t *testing.T) {
	v := loadTestValidator(t)

	if err := v.ValidateSchema(context.Background(), "NotARealSchema", map[string]interface{}{}); err == nil {
		t.Fatal("expected an unknown schema name to error")
	}
}
