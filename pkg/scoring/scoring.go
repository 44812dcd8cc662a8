// Package scoring implements the Scoring Stage's variant-specific
// composite-score formulas and the shared PASS/REVIEW/FAIL decision policy
// described for the verification pipeline.
package scoring

import "github.com/merchantiq/docverify/pkg/domain"

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// OCRScore converts OCR confidence (0-100) into the 0-30 contribution
// shared by every variant. Confidence 0 yields 0; confidence 100 yields 30.
func OCRScore(confidence float64) float64 {
	return clamp(confidence/100*30, 0, 30)
}

// Decide applies the shared threshold policy, then the name-similarity
// override: nameSim < 0.85 forces FAIL; nameSim in [0.85, 0.90) forces
// REVIEW; otherwise the threshold candidate stands.
func Decide(compositeScore, nameSim float64) domain.Decision {
	var candidate domain.Decision
	switch {
	case compositeScore >= 75:
		candidate = domain.DecisionPass
	case compositeScore >= 50:
		candidate = domain.DecisionReview
	default:
		candidate = domain.DecisionFail
	}

	switch {
	case nameSim < 0.85:
		return domain.DecisionFail
	case nameSim < 0.90:
		return domain.DecisionReview
	default:
		return candidate
	}
}

// namePenaltyFactor implements the strict name-contribution penalty: 0 at
// sim=0.70, linear to 1 at sim=0.90, held at 1 from 0.90 to 0.98 (the
// multiplier only departs from 1 below 0.98, and the ramp itself tops out
// at 0.90), applied whenever sim < 0.98.
func namePenaltyFactor(nameSim float64) float64 {
	if nameSim >= 0.98 {
		return 1
	}
	switch {
	case nameSim <= 0.70:
		return 0
	case nameSim < 0.90:
		return (nameSim - 0.70) / (0.90 - 0.70)
	default: // [0.90, 0.98)
		return 1
	}
}

// addressPenaltyFactor implements the lenient address-contribution
// penalty.
func addressPenaltyFactor(addressSim float64) float64 {
	switch {
	case addressSim < 0.3:
		return 0.7
	case addressSim < 0.5:
		return 0.9
	default:
		return 1.0
	}
}
