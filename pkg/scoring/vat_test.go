package scoring

import (
	"testing"

	"github.com/merchantiq/docverify/pkg/domain"
)

// TestScoreVATHappyPath exercises spec scenario 5.
func TestScoreVATHappyPath(t *testing.T) {
	fields := domain.VATFields{
		VATNumber:    ptr("123456789"),
		BusinessName: ptr("Acme Widgets Limited"),
	}
	result := ScoreVAT(VATInput{
		Confidence:      95.0,
		Declared:        fields,
		Extracted:       fields,
		Registry:        fields,
		ForensicPenalty: 0,
	})

	if result.Scores.RegistryScore != 40.0 {
		t.Errorf("registry_score = %v, want 40.0", result.Scores.RegistryScore)
	}
	if result.Decision != domain.DecisionPass {
		t.Errorf("decision = %v, want PASS", result.Decision)
	}
}

func TestScoreVATMissingRegistry(t *testing.T) {
	extracted := domain.VATFields{VATNumber: ptr("123456789"), BusinessName: ptr("Acme Widgets Limited")}
	result := ScoreVAT(VATInput{
		Confidence:      50.0,
		Declared:        domain.VATFields{},
		Extracted:       extracted,
		Registry:        domain.VATFields{},
		ForensicPenalty: 0,
	})
	if result.Scores.RegistryScore != 0 {
		t.Errorf("registry_score = %v, want 0", result.Scores.RegistryScore)
	}
	if result.Scores.ProvidedScore != 0 {
		t.Errorf("provided_score = %v, want 0 when merchant fields are absent", result.Scores.ProvidedScore)
	}
}
