package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/gen2brain/go-fitz"

	"document-analyzer/internal/domain"
)

// pageTimeout bounds how long a single page may take to extract or
// render before it is flagged instead of blocking the document.
const pageTimeout = 10 * time.Second

// renderDPI is the raster resolution for pages handed to OCR.
const renderDPI = 150.0

// PageText is one PDF page's text-layer read plus the OCR flag the
// normalizer acts on.
type PageText struct {
	Ordinal  int
	Text     string
	NeedsOCR bool
}

// PDFExtractor reads PDF pages through their embedded text layer and
// flags pages whose layer is missing or too thin for OCR fallback.
type PDFExtractor struct {
	logger           domain.Logger
	minCharThreshold int
}

// NewPDFExtractor creates a PDF extractor. minCharThreshold is the
// per-page character count below which a page is considered scanned.
func NewPDFExtractor(logger domain.Logger, minCharThreshold int) *PDFExtractor {
	return &PDFExtractor{
		logger:           logger,
		minCharThreshold: minCharThreshold,
	}
}

// Extract satisfies the Extractor interface. Pages needing OCR come back
// as empty units; callers wanting OCR fallback use ExtractPages and
// RenderPage directly.
func (e *PDFExtractor) Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	pages, err := e.ExtractPages(ctx, doc)
	if err != nil {
		return nil, err
	}

	units := make([]domain.ExtractedUnit, 0, len(pages))
	for _, p := range pages {
		unit := domain.ExtractedUnit{
			DocumentID: doc.ID,
			Ordinal:    p.Ordinal,
			Text:       p.Text,
			Confidence: 1.0,
			Method:     domain.MethodTextLayer,
		}
		if p.NeedsOCR {
			unit.Text = ""
			unit.Confidence = 0
			unit.Method = domain.MethodEmpty
		}
		units = append(units, unit)
	}
	return units, nil
}

// ExtractPages reads the text layer of every page in order. A page is
// flagged NeedsOCR when its sanitized text is shorter than the
// configured threshold.
func (e *PDFExtractor) ExtractPages(ctx context.Context, doc *domain.SourceDocument) ([]PageText, error) {
	pdf, err := fitz.NewFromMemory(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	defer pdf.Close()

	total := pdf.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", domain.ErrNoExtractableContent)
	}

	pages := make([]PageText, 0, total)
	flagged := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := e.extractPageWithTimeout(doc.Content, i)
		if err != nil {
			e.logger.Warn("page text extraction failed, flagging for ocr",
				"document_id", doc.ID, "page", i, "error", err)
			text = ""
		}
		text = sanitizeText(text)

		page := PageText{Ordinal: i, Text: text}
		if len(text) < e.minCharThreshold {
			page.NeedsOCR = true
			flagged++
		}
		pages = append(pages, page)
	}

	e.logger.Debug("pdf text layer read", "document_id", doc.ID,
		"pages", total, "flagged_for_ocr", flagged)
	return pages, nil
}

// RenderPage rasterizes one page to PNG for OCR.
func (e *PDFExtractor) RenderPage(ctx context.Context, doc *domain.SourceDocument, ordinal int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf, err := fitz.NewFromMemory(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	defer pdf.Close()

	if ordinal < 0 || ordinal >= pdf.NumPage() {
		return nil, fmt.Errorf("page %d out of range", ordinal)
	}

	type renderResult struct {
		png []byte
		err error
	}
	done := make(chan renderResult, 1)
	go func() {
		png, err := pdf.ImagePNG(ordinal, renderDPI)
		done <- renderResult{png: png, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", ordinal, res.err)
		}
		return res.png, nil
	case <-time.After(pageTimeout):
		return nil, fmt.Errorf("rendering page %d timed out", ordinal)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// extractPageWithTimeout reads one page's text layer, abandoning pages
// that hang inside the rendering library. The goroutine opens its own
// document handle: an abandoned read must never share the handle the
// caller moves on with.
func (e *PDFExtractor) extractPageWithTimeout(content []byte, page int) (string, error) {
	type pageResult struct {
		text string
		err  error
	}
	done := make(chan pageResult, 1)
	go func() {
		pdf, err := fitz.NewFromMemory(content)
		if err != nil {
			done <- pageResult{err: err}
			return
		}
		defer pdf.Close()
		text, err := pdf.Text(page)
		done <- pageResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-time.After(pageTimeout):
		return "", fmt.Errorf("page %d extraction timed out", page)
	}
}
