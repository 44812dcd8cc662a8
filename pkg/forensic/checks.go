// Package forensic implements the Forensic Stage's seven tampering checks.
// Each check is split into a pure scoring function (given a computed
// signal, return a sub-score and required penalty contribution) and a
// signal-extraction function that derives that signal from decoded image
// bytes. The split keeps the scoring formulas - the part the spec pins
// down exactly - unit-testable without image fixtures.
package forensic

import sharedmath "github.com/merchantiq/docverify/pkg/shared/math"

// ELAScore normalizes a mean absolute difference (from a quality-90
// re-encode) into a 0-100 suspicion score, and reports whether it crosses
// the +5 penalty threshold.
func ELAScore(meanDifference float64) (score float64, penalty float64) {
	score = clamp(meanDifference/10*100, 0, 100)
	if score > 50 {
		penalty = 5
	}
	return score, penalty
}

// JPEGQualityScore normalizes mean 8x8-block variance into a 0-100 score
// and reports whether it crosses the +3 penalty threshold. PDFs use the
// neutral value 75 directly, bypassing this function.
func JPEGQualityScore(meanBlockVariance float64) (score float64, penalty float64) {
	score = clamp(meanBlockVariance/100*100, 0, 100)
	if score < 30 {
		penalty = 3
	}
	return score, penalty
}

const pdfNeutralJPEGQualityScore = 75

// IsScannedLooking applies the conservative scanned-document heuristic:
// low BGR-channel-mean variance, or a small max dimension.
func IsScannedLooking(bgrChannelMeanVariance float64, maxDim int) bool {
	return bgrChannelMeanVariance < 100 || maxDim < 2000
}

// CopyMovePenalty grades the copy-move confidence into the threshold and
// penalty bands appropriate to whether the document looks scanned.
func CopyMovePenalty(confidence float64, scanned bool) (detected bool, penalty float64) {
	threshold := 20.0
	if scanned {
		threshold = 30.0
	}
	if confidence <= threshold {
		return false, 0
	}
	if scanned {
		switch {
		case confidence > 70:
			return true, 5
		case confidence > 50:
			return true, 3
		default:
			return true, 1.5
		}
	}
	switch {
	case confidence > 40:
		return true, 7
	case confidence > 25:
		return true, 4
	default:
		return true, 2
	}
}

// PDFMetadataFlags enumerates the anomaly conditions §4.4's PDF metadata
// check looks for, each subtracting between 5 and 20 from a base-100
// score.
type PDFMetadataFlags struct {
	CreatedAfterModified  bool // -20
	ImageEditorSignature  bool // -15
	ProducerAndCreatorMissing bool // -10
	ModifiedRecently      bool // -5
}

// PDFMetadataScore scores PDF metadata anomalies and reports the +2
// penalty, which applies as soon as any anomaly is flagged.
func PDFMetadataScore(flags PDFMetadataFlags) (score float64, penalty float64, anomalies []string) {
	score = 100
	if flags.CreatedAfterModified {
		score -= 20
		anomalies = append(anomalies, "creation date after modification date")
	}
	if flags.ImageEditorSignature {
		score -= 15
		anomalies = append(anomalies, "producer/creator references an image editor")
	}
	if flags.ProducerAndCreatorMissing {
		score -= 10
		anomalies = append(anomalies, "producer and creator both missing")
	}
	if flags.ModifiedRecently {
		score -= 5
		anomalies = append(anomalies, "modification date in current or recent year")
	}
	score = clamp(score, 0, 100)
	if len(anomalies) > 0 {
		penalty = 2
	}
	return score, penalty, anomalies
}

// ResolutionConsistencyScore scores the 5-region FFT-energy analysis.
func ResolutionConsistencyScore(regionEnergies []float64) (score float64, penalty float64) {
	mean := sharedmath.Mean(regionEnergies)
	std := sharedmath.StandardDeviation(regionEnergies)

	score = 100
	if mean != 0 && std/mean > 0.3 {
		score -= 30
	}
	if mean < 100 {
		score -= 25
	}
	score = clamp(score, 0, 100)
	if score < 70 {
		penalty = 2
	}
	return score, penalty
}

// ColorHistogramScore scores the BGR/HSV spike and gap analysis. issues is
// the number of detected anomalies, already capped at 2 by the caller.
func ColorHistogramScore(issues int) (score float64, penalty float64) {
	if issues > 2 {
		issues = 2
	}
	score = 100
	for i := 0; i < issues; i++ {
		score -= 15 // midpoint of the documented 10-20 range per issue
	}
	score = clamp(score, 0, 100)
	if score < 50 {
		penalty = 1.5
	}
	return score, penalty
}

// IsGrayscaleLike reports whether the BGR channel means are close enough
// that H/S histogram checks should be skipped.
func IsGrayscaleLike(bgrChannelMeanStdDev float64) bool {
	return bgrChannelMeanStdDev < 10
}

// NoisePatternScore scores the per-block Laplacian-variance analysis.
func NoisePatternScore(blockVariances []float64) (score float64, penalty float64) {
	mean := sharedmath.Mean(blockVariances)
	std := sharedmath.StandardDeviation(blockVariances)

	score = 100
	if mean != 0 && std/mean > 0.5 {
		score -= 30
		flaggedCount := 0
		for _, v := range blockVariances {
			if mean != 0 && absF(v-mean) > 2*std {
				flaggedCount++
			}
		}
		if len(blockVariances) > 0 && float64(flaggedCount)/float64(len(blockVariances)) > 0.2 {
			score -= 20
		}
	}
	score = clamp(score, 0, 100)
	if score < 70 {
		penalty = 2
	}
	return score, penalty
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
