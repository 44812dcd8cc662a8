// Package ocr defines the Text Extraction Stage's OCR port and the
// stage logic that rasterizes, orders blocks, and computes confidence
// per §4.2.
package ocr

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is the signal an OCR port returns when it cannot
// process a document directly and the caller should fall back to
// page-image conversion.
var ErrUnsupportedFormat = errors.New("ocr: unsupported format")

// BoundingBox locates a detected text block on its page.
type BoundingBox struct {
	Top, Left, Width, Height float64
}

// Block is one unit of OCR output: text plus confidence plus its position.
type Block struct {
	Text       string
	Confidence float64
	Page       int
	BBox       BoundingBox
}

// Port is the Text Extraction Stage's external OCR dependency.
type Port interface {
	DetectBlocks(ctx context.Context, documentBytes []byte) ([]Block, error)
}
