package scoring

import (
	"math"
	"testing"

	"github.com/merchantiq/docverify/pkg/domain"
)

func ptr(s string) *string { return &s }

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// TestScoreCompanyHappyPath exercises spec scenario 1: identical
// merchant/OCR/registry data, clean forensics.
func TestScoreCompanyHappyPath(t *testing.T) {
	fields := domain.CompanyFields{
		CompanyName:   ptr("Acme Widgets Limited"),
		CompanyNumber: ptr("03035678"),
		Address:       ptr("1 High Street, London, EC1A 1BB"),
	}
	result := ScoreCompany(CompanyInput{
		Confidence:      92.0,
		Declared:        fields,
		Extracted:       fields,
		Registry:        fields,
		ForensicPenalty: 0,
	})

	if !almostEqual(result.Scores.OCRScore, 27.6, 0.01) {
		t.Errorf("ocr_score = %v, want 27.6", result.Scores.OCRScore)
	}
	if result.Scores.RegistryScore != 40.0 {
		t.Errorf("registry_score = %v, want 40.0", result.Scores.RegistryScore)
	}
	if result.Scores.OCRComparisonScore != 30.0 {
		t.Errorf("ocr_comparison_score = %v, want 30.0", result.Scores.OCRComparisonScore)
	}
	if result.Scores.ProvidedScore != 30.0 {
		t.Errorf("provided_score = %v, want 30.0", result.Scores.ProvidedScore)
	}
	if result.Scores.FinalScore != 100.0 {
		t.Errorf("final_score = %v, want 100.0 (clamped)", result.Scores.FinalScore)
	}
	if result.Decision != domain.DecisionPass {
		t.Errorf("decision = %v, want PASS", result.Decision)
	}
}

// TestScoreCompanyNameMismatchOverride exercises spec scenario 2: a
// borderline name similarity forces REVIEW even when the composite alone
// would clear the PASS threshold.
func TestScoreCompanyNameMismatchOverride(t *testing.T) {
	declared := domain.CompanyFields{
		CompanyName:   ptr("Acme Widgets Limited"),
		CompanyNumber: ptr("03035678"),
		Address:       ptr("1 High Street, London, EC1A 1BB"),
	}
	extracted := domain.CompanyFields{
		CompanyName:   ptr("Acme Widgets & E Limited"),
		CompanyNumber: ptr("03035678"),
		Address:       ptr("1 High Street, London, EC1A 1BB"),
	}
	registry := domain.CompanyFields{
		CompanyName:   ptr("Acme Widgets YE Limited"),
		CompanyNumber: ptr("03035678"),
		Address:       ptr("1 High Street, London, EC1A 1BB"),
	}

	result := ScoreCompany(CompanyInput{
		Confidence:      92.0,
		Declared:        declared,
		Extracted:       extracted,
		Registry:        registry,
		ForensicPenalty: 0,
	})

	if result.Scores.OCRComparisonScore > 20.0 {
		t.Errorf("ocr_comparison_score = %v, want capped at <= 20", result.Scores.OCRComparisonScore)
	}
	if result.Decision == domain.DecisionPass {
		t.Errorf("decision = PASS, want the name-mismatch override to force REVIEW or FAIL")
	}
}

// TestScoreCompanyNoNumberFound exercises spec scenario 3: no identifier
// surfaced at all, registry contribution is zero.
func TestScoreCompanyNoNumberFound(t *testing.T) {
	extracted := domain.CompanyFields{
		CompanyName: ptr("Acme Widgets Limited"),
	}
	result := ScoreCompany(CompanyInput{
		Confidence:      80.0,
		Declared:        domain.CompanyFields{},
		Extracted:       extracted,
		Registry:        domain.CompanyFields{},
		ForensicPenalty: 0,
	})

	if result.Scores.RegistryScore != 0 {
		t.Errorf("registry_score = %v, want 0", result.Scores.RegistryScore)
	}
	if result.Scores.FinalScore > 60 {
		t.Errorf("final_score = %v, want <= 60", result.Scores.FinalScore)
	}
	if result.Decision == domain.DecisionPass {
		t.Errorf("decision = PASS, want FAIL or REVIEW")
	}
}

// TestScoreCompanyForensicPenaltyReducesFinal exercises spec scenario 4's
// tail: a forensic penalty directly reduces final_score. The declared
// (merchant) fields are left empty so the composite stays below 100 and
// the clamp does not absorb the penalty.
func TestScoreCompanyForensicPenaltyReducesFinal(t *testing.T) {
	fields := domain.CompanyFields{
		CompanyName:   ptr("Acme Widgets Limited"),
		CompanyNumber: ptr("03035678"),
		Address:       ptr("1 High Street, London, EC1A 1BB"),
	}
	clean := ScoreCompany(CompanyInput{Confidence: 92.0, Declared: domain.CompanyFields{}, Extracted: fields, Registry: fields, ForensicPenalty: 0})
	penalized := ScoreCompany(CompanyInput{Confidence: 92.0, Declared: domain.CompanyFields{}, Extracted: fields, Registry: fields, ForensicPenalty: 14})

	if !almostEqual(clean.Scores.FinalScore-penalized.Scores.FinalScore, 14, 0.01) {
		t.Errorf("penalty did not reduce final_score by 14: clean=%v penalized=%v", clean.Scores.FinalScore, penalized.Scores.FinalScore)
	}
}

func TestOCRScoreBoundaries(t *testing.T) {
	if OCRScore(0) != 0 {
		t.Errorf("OCRScore(0) = %v, want 0", OCRScore(0))
	}
	if OCRScore(100) != 30 {
		t.Errorf("OCRScore(100) = %v, want 30", OCRScore(100))
	}
}

func TestDecideThresholds(t *testing.T) {
	cases := []struct {
		score, nameSim float64
		want           domain.Decision
	}{
		{80, 0.95, domain.DecisionPass},
		{60, 0.95, domain.DecisionReview},
		{30, 0.95, domain.DecisionFail},
		{90, 0.80, domain.DecisionFail},
		{90, 0.87, domain.DecisionReview},
	}
	for _, tc := range cases {
		if got := Decide(tc.score, tc.nameSim); got != tc.want {
			t.Errorf("Decide(%v, %v) = %v, want %v", tc.score, tc.nameSim, got, tc.want)
		}
	}
}
