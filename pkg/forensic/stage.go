package forensic

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	sharederrors "github.com/merchantiq/docverify/pkg/shared/errors"
)

// Stage runs the seven forensic checks against one document's raw bytes
// and produces a ForensicReport. An unreadable image saturates the penalty
// to 15 per §4.4/§7; every individual check failure degrades that check to
// a neutral contribution instead of aborting the stage.
type Stage struct {
	log *zap.Logger
	now func() time.Time
}

// NewStage builds a Stage. now defaults to time.Now and is overridable for
// deterministic PDF-metadata-recency tests.
func NewStage(log *zap.Logger, now func() time.Time) *Stage {
	if now == nil {
		now = time.Now
	}
	return &Stage{log: log, now: now}
}

// Run executes all seven checks against raw and returns the composed
// ForensicReport. For a PDF, pages supplies its pages already rasterized to
// images (as the Text Extraction Stage needs them for OCR fallback); Run
// reuses pages[0] to run the same image-based checks a plain image upload
// would get, in addition to the PDF-metadata check, rather than skipping
// them. A PDF with no rasterized page available (pages empty) falls back to
// the PDF-metadata check alone.
func (s *Stage) Run(raw []byte, pages [][]byte) domain.ForensicReport {
	var report domain.ForensicReport
	report.ByteSize, report.MD5Hash, report.SHA256Hash = Hashes(raw)

	if IsPDF(raw) {
		s.runPDFChecks(raw, &report)
		if len(pages) == 0 {
			report.JPEGQualityScore = pdfNeutralJPEGQualityScore
			report.ComputeScore()
			return report
		}
		if err := s.runImageChecks(pages[0], &report); err != nil {
			s.log.Warn("forensic stage: could not decode rasterized PDF page, falling back to metadata-only penalty",
				zap.Error(err))
			report.JPEGQualityScore = pdfNeutralJPEGQualityScore
		}
		report.ComputeScore()
		return report
	}

	if err := s.runImageChecks(raw, &report); err != nil {
		s.log.Warn("forensic stage: unrecoverable blob read failure, saturating penalty",
			zap.Error(err))
		report.Penalty = 15
		report.AddDetail(sharederrors.FailedToWithDetails("decode image", "forensic", "", err).Error())
	}
	report.ComputeScore()
	return report
}

func (s *Stage) runPDFChecks(raw []byte, report *domain.ForensicReport) {
	flags := AnalyzePDFMetadata(raw, s.now())
	score, penalty, anomalies := PDFMetadataScore(flags)
	report.PDFMetadataScore = score
	report.PDFMetadataAnomalies = anomalies
	report.Penalty = penalty
	for _, a := range anomalies {
		report.AddDetail("PDF metadata: " + a)
	}
}

// runImageChecks decodes raw as an image and runs the six image-based
// checks (ELA, JPEG quality, copy-move, resolution consistency, color
// histogram, noise pattern), accumulating their penalty onto whatever
// report.Penalty already holds (the PDF-metadata penalty, or zero for a
// plain image). Returns the decode error, if any, without mutating report
// beyond what Hashes already set.
func (s *Stage) runImageChecks(raw []byte, report *domain.ForensicReport) error {
	signals, err := AnalyzeImage(raw)
	if err != nil {
		return err
	}

	report.HasSoftwareTag, report.HasModifyDate, report.HasCreateDate = scanEXIFPresence(raw)

	penalty := report.Penalty

	elaScore, elaPenalty := ELAScore(signals.ELAMeanDifference)
	report.ELAMeanDifference = signals.ELAMeanDifference
	report.ELAScore = elaScore
	penalty += elaPenalty
	report.AddDetail(fmt.Sprintf("ELA score %.1f (mean diff %.2f)", elaScore, signals.ELAMeanDifference))

	jpegScore, jpegPenalty := JPEGQualityScore(signals.JPEGMeanBlockVariance)
	report.JPEGQualityScore = jpegScore
	penalty += jpegPenalty

	scanned := IsScannedLooking(signals.BGRChannelMeanVar, signals.MaxDim)
	detected, cmPenalty := CopyMovePenalty(signals.CopyMoveConfidence, scanned)
	report.CopyMoveConfidence = signals.CopyMoveConfidence
	report.CopyMoveDetected = detected
	penalty += cmPenalty
	if detected {
		report.AddDetail(fmt.Sprintf("copy-move confidence %.1f%% (scanned=%v)", signals.CopyMoveConfidence, scanned))
	}

	resScore, resPenalty := ResolutionConsistencyScore(signals.ResolutionRegionEnergies)
	report.ResolutionConsistencyScore = resScore
	penalty += resPenalty

	colorScore, colorPenalty := ColorHistogramScore(signals.ColorHistogramIssues)
	report.ColorHistogramScore = colorScore
	penalty += colorPenalty

	noiseScore, noisePenalty := NoisePatternScore(signals.NoiseBlockVariances)
	report.NoisePatternScore = noiseScore
	penalty += noisePenalty

	report.Penalty = penalty
	return nil
}
