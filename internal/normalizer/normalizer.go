package normalizer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"document-analyzer/internal/domain"
	"document-analyzer/internal/extractor"
)

// ocrConcurrency bounds concurrent page renders and OCR calls for one
// document.
const ocrConcurrency = 4

// PDFSource reads a PDF's page texts with OCR flags and renders single
// pages for the OCR fallback.
type PDFSource interface {
	ExtractPages(ctx context.Context, doc *domain.SourceDocument) ([]extractor.PageText, error)
	RenderPage(ctx context.Context, doc *domain.SourceDocument, ordinal int) ([]byte, error)
}

// DocumentNormalizer routes each document to its format extractor and
// runs the OCR fallback for flagged PDF pages. The output unit order
// always matches the original document order.
type DocumentNormalizer struct {
	text          *extractor.TextExtractor
	spreadsheet   *extractor.SpreadsheetExtractor
	pdf           PDFSource
	image         *extractor.ImageExtractor
	ocr           domain.OCREngine
	minConfidence float64
	logger        domain.Logger
}

// NewDocumentNormalizer wires the per-format extractors. ocr may be nil,
// in which case pages needing OCR stay empty and the result is degraded.
func NewDocumentNormalizer(
	text *extractor.TextExtractor,
	spreadsheet *extractor.SpreadsheetExtractor,
	pdf PDFSource,
	image *extractor.ImageExtractor,
	ocr domain.OCREngine,
	minConfidence float64,
	logger domain.Logger,
) *DocumentNormalizer {
	return &DocumentNormalizer{
		text:          text,
		spreadsheet:   spreadsheet,
		pdf:           pdf,
		image:         image,
		ocr:           ocr,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Normalize produces the ordered unit sequence for one document.
func (n *DocumentNormalizer) Normalize(ctx context.Context, doc *domain.SourceDocument) (*domain.NormalizedDocument, error) {
	var units []domain.ExtractedUnit
	var err error

	switch doc.Format {
	case domain.FormatText:
		units, err = n.text.Extract(ctx, doc)
	case domain.FormatSpreadsheet:
		units, err = n.spreadsheet.Extract(ctx, doc)
	case domain.FormatImage:
		units, err = n.image.Extract(ctx, doc)
		if errors.Is(err, domain.ErrOCRUnavailable) {
			// An image with no OCR capability has nothing to extract.
			err = fmt.Errorf("%w: %v", domain.ErrNoExtractableContent, err)
		}
	case domain.FormatPDF:
		units, err = n.normalizePDF(ctx, doc)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, doc.Format)
	}
	if err != nil {
		return nil, err
	}

	units = n.applyConfidenceFloor(doc.ID, units)

	// Empty units are still units: a fully scanned document with no OCR
	// comes back degraded rather than failing here. Only a document that
	// produced no units at all has nothing to analyze.
	normalized := buildNormalized(doc.ID, units)
	if normalized.TotalUnits == 0 {
		return nil, fmt.Errorf("%w: document %s produced no units", domain.ErrNoExtractableContent, doc.ID)
	}

	n.logger.Info("document normalized",
		"document_id", doc.ID,
		"format", doc.Format,
		"units", normalized.TotalUnits,
		"ocr_units", normalized.OCRUnits,
		"empty_units", normalized.EmptyUnits,
		"degraded", normalized.Degraded)
	return normalized, nil
}

// normalizePDF reads the text layer first, then OCRs flagged pages
// concurrently and splices recognized text back at the page's ordinal.
func (n *DocumentNormalizer) normalizePDF(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	pages, err := n.pdf.ExtractPages(ctx, doc)
	if err != nil {
		return nil, err
	}

	units := make([]domain.ExtractedUnit, len(pages))
	var flagged []int
	for i, p := range pages {
		units[i] = domain.ExtractedUnit{
			DocumentID: doc.ID,
			Ordinal:    p.Ordinal,
			Text:       p.Text,
			Confidence: 1.0,
			Method:     domain.MethodTextLayer,
		}
		if p.NeedsOCR {
			units[i].Text = ""
			units[i].Confidence = 0
			units[i].Method = domain.MethodEmpty
			flagged = append(flagged, i)
		}
	}

	if len(flagged) == 0 {
		return units, nil
	}
	if n.ocr == nil {
		n.logger.Warn("ocr not configured, leaving flagged pages empty",
			"document_id", doc.ID, "pages", len(flagged))
		return units, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, ocrConcurrency)

	for _, idx := range flagged {
		idx := idx
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			unit, err := n.ocrPage(gctx, doc, pages[idx].Ordinal)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				n.logger.Warn("page ocr failed, keeping empty unit",
					"document_id", doc.ID, "page", pages[idx].Ordinal, "error", err)
				return nil
			}
			units[idx] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}

// ocrPage renders one page and runs recognition on it.
func (n *DocumentNormalizer) ocrPage(ctx context.Context, doc *domain.SourceDocument, ordinal int) (domain.ExtractedUnit, error) {
	png, err := n.pdf.RenderPage(ctx, doc, ordinal)
	if err != nil {
		return domain.ExtractedUnit{}, err
	}

	text, confidence, err := n.ocr.Recognize(ctx, png)
	if err != nil {
		return domain.ExtractedUnit{}, err
	}

	unit := domain.ExtractedUnit{
		DocumentID: doc.ID,
		Ordinal:    ordinal,
		Text:       text,
		Confidence: confidence,
		Method:     domain.MethodOCR,
	}
	if unit.Text == "" {
		unit.Confidence = 0
		unit.Method = domain.MethodEmpty
	}
	return unit, nil
}

// applyConfidenceFloor empties OCR units whose confidence falls below
// the configured minimum. Low-confidence text is worse than a gap: it
// poisons downstream analysis.
func (n *DocumentNormalizer) applyConfidenceFloor(documentID string, units []domain.ExtractedUnit) []domain.ExtractedUnit {
	for i, u := range units {
		if u.Method == domain.MethodOCR && u.Confidence < n.minConfidence {
			n.logger.Debug("dropping low confidence ocr text",
				"document_id", documentID, "ordinal", u.Ordinal, "confidence", u.Confidence)
			units[i].Text = ""
			units[i].Confidence = 0
			units[i].Method = domain.MethodEmpty
		}
	}
	return units
}

// buildNormalized computes the aggregate metadata over the final units.
func buildNormalized(documentID string, units []domain.ExtractedUnit) *domain.NormalizedDocument {
	normalized := &domain.NormalizedDocument{
		DocumentID: documentID,
		Units:      units,
		TotalUnits: len(units),
	}

	var confSum float64
	for _, u := range units {
		confSum += u.Confidence
		switch u.Method {
		case domain.MethodOCR:
			normalized.OCRUnits++
		case domain.MethodEmpty:
			normalized.EmptyUnits++
		}
	}
	if len(units) > 0 {
		normalized.AvgConfidence = confSum / float64(len(units))
	}
	normalized.Degraded = normalized.OCRUnits > 0 || normalized.EmptyUnits > 0
	return normalized
}
