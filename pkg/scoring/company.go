package scoring

import (
	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/similarity"
)

// CompanyInput carries every value the company-shaped scoring formula
// (CORP_INCORPORATION, COMPANY_REGISTRATION) reads.
type CompanyInput struct {
	Confidence      float64
	Declared        domain.CompanyFields
	Extracted       domain.CompanyFields
	Registry        domain.CompanyFields
	ForensicPenalty float64
}

// CompanyResult is the scoring formula's output, ready to be written back
// onto the Job's VariantPayload and to drive the terminal Decide call.
type CompanyResult struct {
	Scores   domain.ComponentScores
	NameSim  float64
	Decision domain.Decision
}

// ScoreCompany implements the §4.6 company formula exactly.
func ScoreCompany(in CompanyInput) CompanyResult {
	ocrScore := OCRScore(in.Confidence)

	registryScore := companyNumberRegistryScore(in.Extracted.CompanyNumber, in.Registry.CompanyNumber)

	nameSim := similarity.Sim(in.Extracted.CompanyName, in.Registry.CompanyName)
	numberSim := similarity.Sim(in.Extracted.CompanyNumber, in.Registry.CompanyNumber)
	addressSim := similarity.Sim(in.Extracted.Address, in.Registry.Address)

	ocrComparisonScore := ocrComparisonScore(nameSim, numberSim, addressSim)

	providedNameSim := similarity.Sim(in.Declared.CompanyName, in.Registry.CompanyName)
	providedNumberSim := similarity.Sim(in.Declared.CompanyNumber, in.Registry.CompanyNumber)
	providedAddressSim := similarity.Sim(in.Declared.Address, in.Registry.Address)
	providedScore := (0.4*providedNameSim + 0.4*providedNumberSim + 0.2*providedAddressSim) * 30

	dataMatchScore := dataMatchScore([]pairwiseSim{
		{in.Extracted.CompanyName, in.Registry.CompanyName},
		{normalizedOrNil(in.Extracted.CompanyNumber), normalizedOrNil(in.Registry.CompanyNumber)},
		{in.Extracted.Address, in.Registry.Address},
		{in.Declared.CompanyName, in.Registry.CompanyName},
		{normalizedOrNil(in.Declared.CompanyNumber), normalizedOrNil(in.Registry.CompanyNumber)},
		{in.Declared.Address, in.Registry.Address},
	})

	final := clamp(ocrScore+registryScore+providedScore+ocrComparisonScore-in.ForensicPenalty, 0, 100)

	return CompanyResult{
		Scores: domain.ComponentScores{
			OCRScore:           ocrScore,
			RegistryScore:      registryScore,
			ProvidedScore:      providedScore,
			DataMatchScore:     dataMatchScore,
			OCRComparisonScore: ocrComparisonScore,
			FinalScore:         final,
		},
		NameSim:  nameSim,
		Decision: Decide(final, nameSim),
	}
}

// companyNumberRegistryScore implements the registry_score rule: both
// numbers present and normalizable -> exact match 40, else sim*40;
// otherwise 0.
func companyNumberRegistryScore(extracted, registry *string) float64 {
	if extracted == nil || registry == nil {
		return 0
	}
	normExtracted, okE := similarity.NormalizeCompanyNumber(*extracted)
	normRegistry, okR := similarity.NormalizeCompanyNumber(*registry)
	if !okE || !okR {
		return 0
	}
	if normExtracted == normRegistry {
		return 40
	}
	return similarity.Sim(&normExtracted, &normRegistry) * 40
}

// ocrComparisonScore implements the 0-30 ocr_comparison_score: weighted sum
// (name 0.5, number 0.3, address 0.2) of sim*30, with a strict name
// penalty, a lenient address penalty, and a post-hoc cap driven by the
// name-similarity band.
func ocrComparisonScore(nameSim, numberSim, addressSim float64) float64 {
	nameContribution := nameSim * 30 * 0.5
	if nameSim < 0.98 {
		nameContribution *= namePenaltyFactor(nameSim)
	}

	numberContribution := numberSim * 30 * 0.3

	addressContribution := addressSim * 30 * 0.2 * addressPenaltyFactor(addressSim)

	total := nameContribution + numberContribution + addressContribution

	switch {
	case nameSim < 0.90:
		return clamp(total, 0, 20)
	case nameSim < 0.95:
		return clamp(total, 0, 25)
	default:
		return total
	}
}

type pairwiseSim struct {
	a, b *string
}

// normalizedOrNil returns a pointer to the normalized company number, or
// nil if raw is nil (normalization failure still yields the cleaned string
// so an unnormalizable pair is compared rather than silently dropped).
func normalizedOrNil(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized, _ := similarity.NormalizeCompanyNumber(*raw)
	return &normalized
}

// dataMatchScore averages the sims of every pair where both sides are
// populated, scaled to 0-100. A pair where either side is nil is excluded
// from both the numerator and the denominator.
func dataMatchScore(pairs []pairwiseSim) float64 {
	var total float64
	var count int
	for _, p := range pairs {
		if p.a == nil || p.b == nil {
			continue
		}
		total += similarity.Sim(p.a, p.b)
		count++
	}
	if count == 0 {
		return 0
	}
	return (total / float64(count)) * 100
}
