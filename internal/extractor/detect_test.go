package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"document-analyzer/internal/domain"
)

func zipWithEntry(t *testing.T, name, body string) []byte {
	t.Helper()
	return zipWithEntries(t, map[string]string{name: body})
}

func zipWithEntries(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestDetectPDF(t *testing.T) {
	format, err := Detect([]byte("%PDF-1.7\nsome pdf body"), "report.pdf")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if format != domain.FormatPDF {
		t.Errorf("Detect() = %v, want %v", format, domain.FormatPDF)
	}
}

func TestDetectImageMagics(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}},
		{"gif", []byte("GIF89a trailer")},
		{"tiff", []byte{'I', 'I', 0x2A, 0x00, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := Detect(tt.content, "scan.bin")
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if format != domain.FormatImage {
				t.Errorf("Detect() = %v, want %v", format, domain.FormatImage)
			}
		})
	}
}

func TestDetectBMPRequiresValidHeader(t *testing.T) {
	// BITMAPFILEHEADER followed by a BITMAPINFOHEADER size of 40.
	bmp := append([]byte{'B', 'M', 0x46, 0x00, 0x00, 0x00, 0, 0, 0, 0, 0x36, 0x00, 0x00, 0x00},
		0x28, 0x00, 0x00, 0x00, 0x01, 0x00)
	format, err := Detect(bmp, "pixel.bmp")
	if err != nil {
		t.Fatalf("Detect(bmp) error = %v", err)
	}
	if format != domain.FormatImage {
		t.Errorf("Detect(bmp) = %v, want %v", format, domain.FormatImage)
	}

	// Prose happens to start with the same two letters.
	memo := []byte("BM weekly report\n\nReturns were flat against last week.")
	format, err = Detect(memo, "memo.txt")
	if err != nil {
		t.Fatalf("Detect(memo) error = %v", err)
	}
	if format != domain.FormatText {
		t.Errorf("Detect(memo) = %v, want %v", format, domain.FormatText)
	}
}

func TestDetectZipFamilies(t *testing.T) {
	docx := zipWithEntry(t, "word/document.xml", "<w:document/>")
	format, err := Detect(docx, "contract.docx")
	if err != nil {
		t.Fatalf("Detect(docx) error = %v", err)
	}
	if format != domain.FormatText {
		t.Errorf("Detect(docx) = %v, want %v", format, domain.FormatText)
	}

	xlsx := zipWithEntry(t, "xl/workbook.xml", "<workbook/>")
	format, err = Detect(xlsx, "ledger.xlsx")
	if err != nil {
		t.Fatalf("Detect(xlsx) error = %v", err)
	}
	if format != domain.FormatSpreadsheet {
		t.Errorf("Detect(xlsx) = %v, want %v", format, domain.FormatSpreadsheet)
	}

	unknown := zipWithEntry(t, "META-INF/manifest.xml", "<manifest/>")
	if _, err := Detect(unknown, "archive.odt"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("Detect(unknown zip) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetectTabularReport(t *testing.T) {
	content := []byte("return-date\torder-id\tsku\tquantity\n2024-01-05\t111-222\tAB-1\t2\n")
	format, err := Detect(content, "fba-returns.txt")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if format != domain.FormatSpreadsheet {
		t.Errorf("Detect() = %v, want %v", format, domain.FormatSpreadsheet)
	}
}

func TestDetectPlainText(t *testing.T) {
	format, err := Detect([]byte("Just a memo.\n\nWith two paragraphs."), "memo.txt")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if format != domain.FormatText {
		t.Errorf("Detect() = %v, want %v", format, domain.FormatText)
	}
}

func TestDetectEmptyFile(t *testing.T) {
	if _, err := Detect(nil, "empty.txt"); !errors.Is(err, domain.ErrCorruptInput) {
		t.Errorf("Detect(empty) error = %v, want ErrCorruptInput", err)
	}
}

func TestDetectBinaryGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 64)
	if _, err := Detect(garbage, "blob.dat"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("Detect(garbage) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetectWithHint(t *testing.T) {
	content := []byte("%PDF-1.4\n")

	format, err := DetectWithHint(content, "doc.pdf", "pdf")
	if err != nil {
		t.Fatalf("DetectWithHint(agreeing) error = %v", err)
	}
	if format != domain.FormatPDF {
		t.Errorf("DetectWithHint() = %v, want %v", format, domain.FormatPDF)
	}

	if _, err := DetectWithHint(content, "doc.pdf", "image"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("DetectWithHint(disagreeing) error = %v, want ErrUnsupportedFormat", err)
	}

	format, err = DetectWithHint(content, "doc.pdf", "")
	if err != nil || format != domain.FormatPDF {
		t.Errorf("DetectWithHint(no hint) = %v, %v; want pdf, nil", format, err)
	}
}
