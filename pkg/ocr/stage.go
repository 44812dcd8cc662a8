package ocr

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	sharedmath "github.com/merchantiq/docverify/pkg/shared/math"
)

// Result is the Text Extraction Stage's output.
type Result struct {
	RawText    string
	Confidence float64
}

// Stage implements the Text Extraction Stage: submit page/image bytes to
// the OCR port, order blocks by (page, top, left), join with newlines
// (blank line between pages), and average block confidences.
type Stage struct {
	port              Port
	maxPageConcurrent int
}

// NewStage builds a Stage. maxPageConcurrent bounds the per-page OCR
// fan-out to the 4-5 concurrent calls §5 documents; values <= 0 default to
// 5.
func NewStage(port Port, maxPageConcurrent int) *Stage {
	if maxPageConcurrent <= 0 {
		maxPageConcurrent = 5
	}
	return &Stage{port: port, maxPageConcurrent: maxPageConcurrent}
}

// Extract runs the Text Extraction Stage against documentBytes. If the
// port signals ErrUnsupportedFormat, Extract falls back to per-page
// rasterized retries bounded by maxPageConcurrent, run concurrently via
// errgroup. A hard OCR port failure degrades to ("", 0.0) rather than
// aborting the Dispatcher.
func (s *Stage) Extract(ctx context.Context, documentBytes []byte, pages [][]byte) Result {
	blocks, err := s.port.DetectBlocks(ctx, documentBytes)
	if err == nil {
		return compose(blocks)
	}
	if err != ErrUnsupportedFormat || len(pages) == 0 {
		return Result{}
	}

	blocks = s.extractPagesConcurrently(ctx, pages)
	return compose(blocks)
}

// extractPagesConcurrently submits each page to the OCR port, bounded to
// maxPageConcurrent concurrent calls.
func (s *Stage) extractPagesConcurrently(ctx context.Context, pages [][]byte) []Block {
	results := make([][]Block, len(pages))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxPageConcurrent)

	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			blocks, err := s.port.DetectBlocks(gctx, page)
			if err != nil {
				return nil // a single page's hard failure degrades that page, not the job
			}
			for j := range blocks {
				blocks[j].Page = i
			}
			mu.Lock()
			results[i] = blocks
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var all []Block
	for _, blocks := range results {
		all = append(all, blocks...)
	}
	return all
}

// compose orders blocks by (page, top, left), joins their text with
// newlines (a blank line between pages), and averages confidence.
func compose(blocks []Block) Result {
	if len(blocks) == 0 {
		return Result{}
	}

	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		if sorted[i].BBox.Top != sorted[j].BBox.Top {
			return sorted[i].BBox.Top < sorted[j].BBox.Top
		}
		return sorted[i].BBox.Left < sorted[j].BBox.Left
	})

	var builder strings.Builder
	var confidences []float64
	currentPage := sorted[0].Page
	for i, b := range sorted {
		if b.Page != currentPage {
			builder.WriteString("\n\n")
			currentPage = b.Page
		} else if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(b.Text)
		confidences = append(confidences, b.Confidence)
	}

	return Result{
		RawText:    builder.String(),
		Confidence: sharedmath.Mean(confidences),
	}
}
