package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"document-analyzer/internal/domain"
)

// File signatures checked before any extension is trusted. A caller-declared
// hint may skip detection only when it agrees with the signature. BMP is
// handled separately: its two-byte magic needs header validation.
var imageMagics = [][]byte{
	{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A},
	{0xFF, 0xD8, 0xFF}, // JPEG
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	{'I', 'I', 0x2A, 0x00}, // TIFF little-endian
	{'M', 'M', 0x00, 0x2A}, // TIFF big-endian
}

// Detect classifies raw file bytes into one of the supported format
// families. It is a pure function: signature first, extension as a
// tie-breaker for plain-text content only.
func Detect(content []byte, filename string) (domain.Format, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrCorruptInput)
	}

	if bytes.HasPrefix(content, []byte("%PDF-")) {
		return domain.FormatPDF, nil
	}

	for _, magic := range imageMagics {
		if bytes.HasPrefix(content, magic) {
			return domain.FormatImage, nil
		}
	}
	if isBMP(content) {
		return domain.FormatImage, nil
	}

	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		return detectZipFamily(content, filename)
	}

	return detectTextFamily(content, filename)
}

// DetectWithHint honors a declared format hint only when the signature
// agrees; a hint is never trusted over the detected format.
func DetectWithHint(content []byte, filename, hint string) (domain.Format, error) {
	detected, err := Detect(content, filename)
	if err != nil {
		return "", err
	}
	if hint == "" || domain.Format(hint) == detected {
		return detected, nil
	}
	return "", fmt.Errorf("%w: declared format %q does not match detected %q",
		domain.ErrUnsupportedFormat, hint, detected)
}

// isBMP checks more than the "BM" prefix, which ordinary prose can also
// start with. The 14-byte file header is followed by a DIB header whose
// declared size identifies the variant.
func isBMP(content []byte) bool {
	if len(content) < 18 || content[0] != 'B' || content[1] != 'M' {
		return false
	}
	switch binary.LittleEndian.Uint32(content[14:18]) {
	case 12, 40, 52, 56, 64, 108, 124:
		return true
	}
	return false
}

// detectZipFamily discriminates OOXML containers by their inner paths:
// word/ marks a DOCX, xl/ marks an XLSX workbook.
func detectZipFamily(content []byte, filename string) (domain.Format, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable zip container: %v", domain.ErrCorruptInput, err)
	}
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			return domain.FormatText, nil
		case f.Name == "xl/workbook.xml":
			return domain.FormatSpreadsheet, nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized zip container %s", domain.ErrUnsupportedFormat, filename)
}

// detectTextFamily handles anything without a binary signature. Mostly
// non-UTF-8 content is rejected rather than guessed at.
func detectTextFamily(content []byte, filename string) (domain.Format, error) {
	sample := content
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if !looksTextual(sample) {
		return "", fmt.Errorf("%w: %s has no recognizable signature", domain.ErrUnsupportedFormat, filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".tsv", ".xls":
		return domain.FormatSpreadsheet, nil
	case ".txt", ".md", ".html", ".htm", "":
		if isTabularReport(sample) {
			return domain.FormatSpreadsheet, nil
		}
		return domain.FormatText, nil
	default:
		if isTabularReport(sample) {
			return domain.FormatSpreadsheet, nil
		}
		return domain.FormatText, nil
	}
}

// isTabularReport sniffs tab-delimited export files by their header row
// (the seller-report shape: a first line of several tab-separated column
// names such as return-date / order-id).
func isTabularReport(sample []byte) bool {
	nl := bytes.IndexByte(sample, '\n')
	if nl < 0 {
		nl = len(sample)
	}
	header := string(sample[:nl])
	if strings.Count(header, "\t") < 2 {
		return false
	}
	lower := strings.ToLower(header)
	return strings.Contains(lower, "return-date") || strings.Contains(lower, "order-id") ||
		strings.Contains(lower, "sku") || strings.Contains(lower, "quantity")
}

// looksTextual reports whether the sample decodes as mostly printable
// UTF-8. Undecodable bytes count against the ratio.
func looksTextual(sample []byte) bool {
	printable := 0
	total := 0
	for _, r := range string(sample) {
		total++
		if r == utf8.RuneError {
			continue
		}
		if r >= 0x20 || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return false
	}
	return float64(printable)/float64(total) >= 0.9
}
