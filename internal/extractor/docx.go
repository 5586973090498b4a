package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"

	"document-analyzer/internal/domain"
)

// isDocxContainer reports whether the bytes are a zip holding a WordprocessingML
// document part.
func isDocxContainer(content []byte) bool {
	if !bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

// extractDocx walks word/document.xml as a token stream, emitting one
// unit per <w:p> paragraph. Tabs and explicit breaks inside a run are
// preserved as whitespace.
func (e *TextExtractor) extractDocx(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	var docPart *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docPart = f
			break
		}
	}
	if docPart == nil {
		return nil, fmt.Errorf("%w: missing word/document.xml", domain.ErrCorruptInput)
	}

	rc, err := docPart.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	defer rc.Close()

	paragraphs, err := walkDocumentXML(ctx, rc)
	if err != nil {
		return nil, err
	}

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

	e.logger.Debug("docx extraction complete", "document_id", doc.ID, "units", len(units))
	return units, nil
}

// walkDocumentXML streams the XML tokens of a document part and collects
// non-empty paragraph texts in document order.
func walkDocumentXML(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var paragraphs []string
	var current bytes.Buffer
	inParagraph := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed document xml: %v", domain.ErrCorruptInput, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				if text := sanitizeText(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				inParagraph = false
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
