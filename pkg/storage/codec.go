package storage

import (
	"encoding/json"
	"fmt"

	"github.com/merchantiq/docverify/pkg/domain"
)

// EncodePayload serializes a VariantPayload to JSON for storage, since the
// payload column holds one of three concrete shapes behind the
// domain.VariantPayload interface.
func EncodePayload(payload domain.VariantPayload) ([]byte, error) {
	return json.Marshal(payload)
}

// DecodePayload deserializes raw JSON into the concrete payload type that
// matches variant.
func DecodePayload(variant domain.Variant, raw []byte) (domain.VariantPayload, error) {
	switch variant {
	case domain.VariantCorpIncorporation, domain.VariantCompanyRegistration:
		var payload domain.CompanyPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case domain.VariantVATRegistration:
		var payload domain.VATPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	case domain.VariantDirectorVerification:
		var payload domain.DirectorPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	default:
		return nil, fmt.Errorf("storage: unknown variant %q", variant)
	}
}
