package scoring

import (
	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/similarity"
)

// DirectorInput carries every value the director scoring formula reads.
// Verified/Reason come from the Registry Stage's officer match (§4.5).
type DirectorInput struct {
	Confidence      float64
	Declared        domain.DirectorFields
	Extracted       domain.DirectorFields
	Registry        domain.DirectorFields
	Verified        bool
	ForensicPenalty float64
}

// DirectorResult is the director scoring formula's output.
type DirectorResult struct {
	Scores   domain.ComponentScores
	NameSim  float64
	Decision domain.Decision
}

// ScoreDirector implements the §4.6 director formula: registry_score comes
// directly from the registry match outcome rather than a normalized
// identifier comparison, composed as for VAT.
func ScoreDirector(in DirectorInput) DirectorResult {
	ocrScore := OCRScore(in.Confidence)

	var registryScore float64
	if in.Verified {
		registryScore = 40
	}

	nameSim := similarity.Sim(in.Extracted.DirectorName, in.Registry.DirectorName)

	providedNameSim := similarity.Sim(in.Declared.DirectorName, in.Registry.DirectorName)
	providedDOBSim := similarity.Sim(in.Declared.DateOfBirth, in.Registry.DateOfBirth)
	providedNumberSim := similarity.Sim(in.Declared.CompanyNumber, in.Registry.CompanyNumber)
	providedScore := (0.5*providedNameSim + 0.3*providedDOBSim + 0.2*providedNumberSim) * 30

	dataMatchScore := dataMatchScore([]pairwiseSim{
		{in.Extracted.DirectorName, in.Registry.DirectorName},
		{in.Extracted.DateOfBirth, in.Registry.DateOfBirth},
		{normalizedOrNil(in.Extracted.CompanyNumber), normalizedOrNil(in.Registry.CompanyNumber)},
		{in.Declared.DirectorName, in.Registry.DirectorName},
		{in.Declared.DateOfBirth, in.Registry.DateOfBirth},
		{normalizedOrNil(in.Declared.CompanyNumber), normalizedOrNil(in.Registry.CompanyNumber)},
	})

	final := clamp(ocrScore+registryScore+providedScore-in.ForensicPenalty, 0, 100)

	return DirectorResult{
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
