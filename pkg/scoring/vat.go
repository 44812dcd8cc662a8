package scoring

import (
	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/similarity"
)

// VATInput carries every value the VAT scoring formula reads.
type VATInput struct {
	Confidence      float64
	Declared        domain.VATFields
	Extracted       domain.VATFields
	Registry        domain.VATFields
	ForensicPenalty float64
}

// VATResult is the VAT scoring formula's output.
type VATResult struct {
	Scores   domain.ComponentScores
	NameSim  float64
	Decision domain.Decision
}

// ScoreVAT implements the §4.6 VAT formula: structurally analogous to
// ScoreCompany but without an ocr_comparison_score component.
func ScoreVAT(in VATInput) VATResult {
	ocrScore := OCRScore(in.Confidence)

	registryScore := vatNumberRegistryScore(in.Extracted.VATNumber, in.Registry.VATNumber)

	nameSim := similarity.Sim(in.Extracted.BusinessName, in.Registry.BusinessName)

	providedNameSim := similarity.Sim(in.Declared.BusinessName, in.Registry.BusinessName)
	providedNumberSim := similarity.Sim(in.Declared.VATNumber, in.Registry.VATNumber)
	providedAddressSim := similarity.Sim(in.Declared.Address, in.Registry.Address)
	providedScore := (0.4*providedNameSim + 0.4*providedNumberSim + 0.2*providedAddressSim) * 30

	dataMatchScore := dataMatchScore([]pairwiseSim{
		{in.Extracted.BusinessName, in.Registry.BusinessName},
		{normalizedVATOrNil(in.Extracted.VATNumber), normalizedVATOrNil(in.Registry.VATNumber)},
		{in.Extracted.Address, in.Registry.Address},
		{in.Declared.BusinessName, in.Registry.BusinessName},
		{normalizedVATOrNil(in.Declared.VATNumber), normalizedVATOrNil(in.Registry.VATNumber)},
		{in.Declared.Address, in.Registry.Address},
	})

	final := clamp(ocrScore+registryScore+providedScore-in.ForensicPenalty, 0, 100)

	return VATResult{
		Scores: domain.ComponentScores{
			OCRScore:       ocrScore,
			RegistryScore:  registryScore,
			ProvidedScore:  providedScore,
			DataMatchScore: dataMatchScore,
			FinalScore:     final,
		},
		NameSim:  nameSim,
		Decision: Decide(final, nameSim),
	}
}

func vatNumberRegistryScore(extracted, registry *string) float64 {
	if extracted == nil || registry == nil {
		return 0
	}
	normExtracted, okE := similarity.NormalizeVATNumber(*extracted)
	normRegistry, okR := similarity.NormalizeVATNumber(*registry)
	if !okE || !okR {
		return 0
	}
	if normExtracted == normRegistry {
		return 40
	}
	return similarity.Sim(&normExtracted, &normRegistry) * 40
}

func normalizedVATOrNil(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized, _ := similarity.NormalizeVATNumber(*raw)
	return &normalized
}
