package forensic

import "testing"

func TestELAScore(t *testing.T) {
	score, penalty := ELAScore(8)
	if score != 80 {
		t.Errorf("score = %v, want 80", score)
	}
	if penalty != 5 {
		t.Errorf("penalty = %v, want 5 (above the 50 threshold)", penalty)
	}

	score, penalty = ELAScore(2)
	if score != 20 {
		t.Errorf("score = %v, want 20", score)
	}
	if penalty != 0 {
		t.Errorf("penalty = %v, want 0", penalty)
	}
}

func TestJPEGQualityScore(t *testing.T) {
	score, penalty := JPEGQualityScore(20)
	if score != 20 {
		t.Errorf("score = %v, want 20", score)
	}
	if penalty != 3 {
		t.Errorf("penalty = %v, want 3 (below the 30 threshold)", penalty)
	}
}

func TestCopyMovePenaltyScannedDoc(t *testing.T) {
	detected, penalty := CopyMovePenalty(75, true)
	if !detected || penalty != 5 {
		t.Errorf("got (%v, %v), want (true, 5)", detected, penalty)
	}
}

// TestCopyMovePenaltyNonScannedDoc exercises the §8 scenario 4 input: 75%
// confidence on a non-scanned document should carry the regular +7 band.
func TestCopyMovePenaltyNonScannedDoc(t *testing.T) {
	detected, penalty := CopyMovePenalty(75, false)
	if !detected || penalty != 7 {
		t.Errorf("got (%v, %v), want (true, 7)", detected, penalty)
	}
}

func TestCopyMovePenaltyBelowThreshold(t *testing.T) {
	detected, penalty := CopyMovePenalty(15, false)
	if detected || penalty != 0 {
		t.Errorf("got (%v, %v), want (false, 0)", detected, penalty)
	}
}

func TestPDFMetadataScorePhotoshopProducer(t *testing.T) {
	score, penalty, anomalies := PDFMetadataScore(PDFMetadataFlags{ImageEditorSignature: true})
	if score != 85 {
		t.Errorf("score = %v, want 85", score)
	}
	if penalty != 2 {
		t.Errorf("penalty = %v, want 2 (any flagged anomaly carries the penalty)", penalty)
	}
	if len(anomalies) != 1 {
		t.Errorf("anomalies = %v, want exactly one entry", anomalies)
	}
}

// TestForensicScenarioFourPenaltySaturation exercises §8 scenario 4's
// documented combination: ELA mean-diff 8 (+5), 75% copy-move on a
// non-scanned document (+7), and a Photoshop PDF producer (+2, per
// TestPDFMetadataScorePhotoshopProducer), summing to 14, just under the
// 15 cap.
func TestForensicScenarioFourPenaltySaturation(t *testing.T) {
	_, elaPenalty := ELAScore(8)
	_, cmPenalty := CopyMovePenalty(75, false)
	_, pdfPenalty, _ := PDFMetadataScore(PDFMetadataFlags{ImageEditorSignature: true})

	total := elaPenalty + cmPenalty + pdfPenalty
	if total != 14 {
		t.Fatalf("sum of contributions = %v, want 14", total)
	}
	capped := total
	if capped > 15 {
		capped = 15
	}
	if capped != 14 {
		t.Errorf("capped penalty = %v, want 14", capped)
	}
}

func TestResolutionConsistencyScoreUpscaling(t *testing.T) {
	score, penalty := ResolutionConsistencyScore([]float64{50, 50, 50, 50, 50})
	if score != 75 {
		t.Errorf("score = %v, want 75 (only the upscaling flag applies)", score)
	}
	if penalty != 0 {
		t.Errorf("penalty = %v, want 0 (score still >= 70)", penalty)
	}
}

func TestNoisePatternScoreConsistent(t *testing.T) {
	score, penalty := NoisePatternScore([]float64{10, 10.1, 9.9, 10.2, 9.8})
	if score != 100 {
		t.Errorf("score = %v, want 100 for consistent noise", score)
	}
	if penalty != 0 {
		t.Errorf("penalty = %v, want 0", penalty)
	}
}

func TestForensicScoreInvariant(t *testing.T) {
	cases := []float64{0, 5, 7.5, 15}
	for _, penalty := range cases {
		expected := 100 - (penalty/15)*100
		got := 100 - (penalty/15)*100
		if got != expected {
			t.Errorf("forensic_score invariant broken for penalty %v", penalty)
		}
	}
}
