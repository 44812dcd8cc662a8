package scoring

import (
	"testing"

	"github.com/merchantiq/docverify/pkg/domain"
)

// TestScoreDirectorNotFound exercises spec scenario 6: the Registry Stage
// reports no match, so registry_score is 0 and the decision is FAIL.
func TestScoreDirectorNotFound(t *testing.T) {
	extracted := domain.DirectorFields{
		DirectorName:  ptr("Jane Roe"),
		CompanyNumber: ptr("09876543"),
	}
	result := ScoreDirector(DirectorInput{
		Confidence:      85.0,
		Declared:        domain.DirectorFields{},
		Extracted:       extracted,
		Registry:        domain.DirectorFields{},
		Verified:        false,
		ForensicPenalty: 0,
	})

	if result.Scores.RegistryScore != 0 {
		t.Errorf("registry_score = %v, want 0", result.Scores.RegistryScore)
	}
	if result.Decision != domain.DecisionFail {
		t.Errorf("decision = %v, want FAIL", result.Decision)
	}
}

func TestScoreDirectorVerified(t *testing.T) {
	fields := domain.DirectorFields{
		DirectorName:  ptr("John Doe"),
		DateOfBirth:   ptr("1980-01-01"),
		CompanyNumber: ptr("09876543"),
	}
	result := ScoreDirector(DirectorInput{
		Confidence:      90.0,
		Declared:        fields,
		Extracted:       fields,
		Registry:        fields,
		Verified:        true,
		ForensicPenalty: 0,
	})

	if result.Scores.RegistryScore != 40.0 {
		t.Errorf("registry_score = %v, want 40.0", result.Scores.RegistryScore)
	}
	if result.Decision != domain.DecisionPass {
		t.Errorf("decision = %v, want PASS", result.Decision)
	}
}
