package llm

import "fmt"

// BuildPrompt constructs the variant-specific extraction prompt sent to
// the LLM port, embedding the (already-truncated) raw OCR text.
func BuildPrompt(schema Schema, rawText string) string {
	truncated := TruncatePrompt(rawText)
	switch schema {
	case SchemaCompany:
		return fmt.Sprintf(`Extract the following fields from this company document text as strict JSON with null for any field not present: company_name, company_number, address, date.

Text:
%s`, truncated)
	case SchemaVAT:
		return fmt.Sprintf(`Extract the following fields from this VAT registration document text as strict JSON with null for any field not present: vat_number, business_name, address, registration_date.

Text:
%s`, truncated)
	case SchemaDirector:
		return fmt.Sprintf(`Extract the following fields from this director appointment document text as strict JSON with null for any field not present: director_name, date_of_birth, address, company_name, company_number, appointment_date.

Text:
%s`, truncated)
	default:
		return truncated
	}
}
