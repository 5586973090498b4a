package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Format identifies the detected family of an input file. The set is closed:
// new formats are added here and get their own extractor, never discovered
// at runtime by type inspection.
type Format string

const (
	FormatText        Format = "text-native"
	FormatPDF         Format = "pdf"
	FormatImage       Format = "image"
	FormatSpreadsheet Format = "spreadsheet"
)

// ExtractionMethod records how an ExtractedUnit's text was produced.
type ExtractionMethod string

const (
	// MethodNative covers formats whose text is read directly (txt, docx, rows).
	MethodNative ExtractionMethod = "native"
	// MethodTextLayer is a PDF page read from the embedded text layer.
	MethodTextLayer ExtractionMethod = "text-layer"
	// MethodOCR is text recognized from a raster image or scanned page.
	MethodOCR ExtractionMethod = "ocr"
	// MethodEmpty is a placeholder for a page that produced no text
	// (OCR unavailable or failed). Confidence is always 0.
	MethodEmpty ExtractionMethod = "empty"
)

// SourceDocument is one input file handed to the pipeline. It is immutable
// once created and owned by a single run; Release drops the raw content
// after normalization so large uploads don't outlive the stage that needs them.
type SourceDocument struct {
	ID       string
	Filename string
	Format   Format
	Size     int64
	Content  []byte
}

// NewSourceDocument builds a SourceDocument with a fresh identifier.
func NewSourceDocument(filename string, format Format, content []byte) *SourceDocument {
	return &SourceDocument{
		ID:       uuid.New().String(),
		Filename: filename,
		Format:   format,
		Size:     int64(len(content)),
		Content:  content,
	}
}

// Release drops the raw content handle. Safe to call more than once.
func (d *SourceDocument) Release() {
	d.Content = nil
}

// ExtractedUnit is one logically addressable piece of extracted content:
// a page for PDFs and images, a paragraph for text documents, a row block
// for spreadsheets. Ordinals within one document are strictly increasing
// and gapless relative to the original structure.
type ExtractedUnit struct {
	DocumentID string           `json:"document_id"`
	Ordinal    int              `json:"ordinal"`
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Method     ExtractionMethod `json:"method"`
}

// NormalizedDocument is the ordered unit sequence for one SourceDocument
// plus aggregate metadata. Order always matches the original document.
type NormalizedDocument struct {
	DocumentID    string          `json:"document_id"`
	Units         []ExtractedUnit `json:"units"`
	TotalUnits    int             `json:"total_units"`
	OCRUnits      int             `json:"ocr_units"`
	EmptyUnits    int             `json:"empty_units"`
	AvgConfidence float64         `json:"avg_confidence"`
	// Degraded is set when OCR fallback ran, was unavailable, or produced
	// text below the configured confidence floor.
	Degraded bool `json:"degraded"`
}

// Text returns the full normalized text, units joined in original order.
func (n *NormalizedDocument) Text() string {
	parts := make([]string, 0, len(n.Units))
	for _, u := range n.Units {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n\n")
}
