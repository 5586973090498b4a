package extractor

import (
	"context"
	"errors"
	"fmt"

	"document-analyzer/internal/domain"
)

// ImageExtractor treats the whole image as a single page and delegates
// text recognition to the OCR engine. A nil engine means OCR is not
// configured for this deployment.
type ImageExtractor struct {
	logger domain.Logger
	ocr    domain.OCREngine
}

// NewImageExtractor creates an image extractor. ocr may be nil.
func NewImageExtractor(logger domain.Logger, ocr domain.OCREngine) *ImageExtractor {
	return &ImageExtractor{logger: logger, ocr: ocr}
}

// Extract returns exactly one unit per image. Without a configured OCR
// engine the image has no extractable content at all.
func (e *ImageExtractor) Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.ocr == nil {
		return nil, fmt.Errorf("%w: image input requires ocr", domain.ErrOCRUnavailable)
	}

	text, confidence, err := e.ocr.Recognize(ctx, doc.Content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.logger.Warn("ocr recognition failed", "document_id", doc.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRUnavailable, err)
	}

	unit := domain.ExtractedUnit{
		DocumentID: doc.ID,
		Ordinal:    0,
		Text:       sanitizeText(text),
		Confidence: confidence,
		Method:     domain.MethodOCR,
	}
	if unit.Text == "" {
		unit.Confidence = 0
		unit.Method = domain.MethodEmpty
	}

	return []domain.ExtractedUnit{unit}, nil
}
