package extractor

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"document-analyzer/internal/domain"
)

// TextExtractor handles the text-native family: plain text, markdown,
// HTML, and DOCX containers. Each paragraph becomes one unit with
// confidence 1.0.
type TextExtractor struct {
	logger domain.Logger
}

// NewTextExtractor creates a text-native extractor.
func NewTextExtractor(logger domain.Logger) *TextExtractor {
	return &TextExtractor{logger: logger}
}

// Extract produces one unit per paragraph in document order.
func (e *TextExtractor) Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if isDocxContainer(doc.Content) {
		return e.extractDocx(ctx, doc)
	}

	text := string(doc.Content)
	if looksLikeHTML(text) {
		text = htmlToText(text)
	}
	text = sanitizeText(text)

	if ratio := printableRatio(text); text != "" && ratio < 0.85 {
		return nil, fmt.Errorf("%w: printable ratio %.2f below threshold", domain.ErrCorruptInput, ratio)
	}

	paragraphs := splitIntoParagraphs(text)
	units := make([]domain.ExtractedUnit, 0, len(paragraphs))
	for i, p := range paragraphs {
		units = append(units, domain.ExtractedUnit{
			DocumentID: doc.ID,
			Ordinal:    i,
			Text:       p,
			Confidence: 1.0,
			Method:     domain.MethodNative,
		})
	}

	e.logger.Debug("text extraction complete", "document_id", doc.ID, "units", len(units))
	return units, nil
}

// looksLikeHTML sniffs for markup near the start of the content.
func looksLikeHTML(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<html") ||
		strings.Contains(head, "<body")
}

// htmlToText strips markup, keeping text nodes and turning block-level
// boundaries into paragraph breaks. Script and style bodies are skipped.
func htmlToText(src string) string {
	node, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "section", "article":
				b.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return b.String()
}
