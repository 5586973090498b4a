package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"document-analyzer/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, fields ...interface{})             {}
func (m *mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (m *mockLogger) Debug(msg string, fields ...interface{})            {}
func (m *mockLogger) Warn(msg string, fields ...interface{})             {}

type mockOCR struct {
	text       string
	confidence float64
	err        error
}

func (m *mockOCR) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	return m.text, m.confidence, m.err
}

func TestTextExtractorParagraphs(t *testing.T) {
	doc := domain.NewSourceDocument("memo.txt", domain.FormatText,
		[]byte("First paragraph line one.\nLine two.\n\nSecond paragraph.\n\n\nThird."))

	units, err := NewTextExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("Extract() produced %d units, want 3", len(units))
	}
	for i, u := range units {
		if u.Ordinal != i {
			t.Errorf("unit %d has ordinal %d", i, u.Ordinal)
		}
		if u.Confidence != 1.0 {
			t.Errorf("unit %d confidence = %v, want 1.0", i, u.Confidence)
		}
		if u.Method != domain.MethodNative {
			t.Errorf("unit %d method = %v, want native", i, u.Method)
		}
		if u.DocumentID != doc.ID {
			t.Errorf("unit %d document id = %q, want %q", i, u.DocumentID, doc.ID)
		}
	}
	if units[0].Text != "First paragraph line one.\nLine two." {
		t.Errorf("unit 0 text = %q", units[0].Text)
	}
	if units[2].Text != "Third." {
		t.Errorf("unit 2 text = %q", units[2].Text)
	}
}

func TestTextExtractorHTML(t *testing.T) {
	src := `<!DOCTYPE html><html><head><style>p{color:red}</style></head>
<body><h1>Invoice</h1><p>Total due: 42.00</p><script>alert(1)</script></body></html>`
	doc := domain.NewSourceDocument("invoice.html", domain.FormatText, []byte(src))

	units, err := NewTextExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	joined := make([]string, 0, len(units))
	for _, u := range units {
		joined = append(joined, u.Text)
	}
	all := strings.Join(joined, "\n\n")
	if !strings.Contains(all, "Invoice") || !strings.Contains(all, "Total due: 42.00") {
		t.Errorf("html text missing content: %q", all)
	}
	if strings.Contains(all, "alert") || strings.Contains(all, "color:red") {
		t.Errorf("html extraction leaked script/style content: %q", all)
	}
}

func TestTextExtractorDocx(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Opening clause.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> clause.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`
	content := zipWithEntry(t, "word/document.xml", docXML)
	doc := domain.NewSourceDocument("contract.docx", domain.FormatText, content)

	units, err := NewTextExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("Extract() produced %d units, want 2 (empty paragraph dropped)", len(units))
	}
	if units[0].Text != "Opening clause." {
		t.Errorf("unit 0 text = %q", units[0].Text)
	}
	if units[1].Text != "Second clause." {
		t.Errorf("unit 1 text = %q", units[1].Text)
	}
}

func TestSpreadsheetExtractorCSVBlocks(t *testing.T) {
	var b strings.Builder
	b.WriteString("order-id,sku,quantity\n")
	for i := 0; i < 120; i++ {
		b.WriteString("111-222,AB-1,2\n")
	}
	doc := domain.NewSourceDocument("returns.csv", domain.FormatSpreadsheet, []byte(b.String()))

	units, err := NewSpreadsheetExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	// 120 data rows at 50 per block.
	if len(units) != 3 {
		t.Fatalf("Extract() produced %d units, want 3", len(units))
	}
	for i, u := range units {
		if u.Ordinal != i {
			t.Errorf("unit %d ordinal = %d", i, u.Ordinal)
		}
		if !strings.HasPrefix(u.Text, "order-id\tsku\tquantity") {
			t.Errorf("unit %d does not repeat header: %q", i, u.Text[:40])
		}
	}
	lastLines := strings.Split(units[2].Text, "\n")
	if len(lastLines) != 21 { // header + 20 remaining rows
		t.Errorf("last block has %d lines, want 21", len(lastLines))
	}
}

func TestSpreadsheetExtractorTSVDelimiter(t *testing.T) {
	content := []byte("return-date\torder-id\n2024-01-05\t111-222\n")
	doc := domain.NewSourceDocument("fba.txt", domain.FormatSpreadsheet, content)

	units, err := NewSpreadsheetExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Extract() produced %d units, want 1", len(units))
	}
	if !strings.Contains(units[0].Text, "2024-01-05\t111-222") {
		t.Errorf("row not tab-joined: %q", units[0].Text)
	}
}

func TestSpreadsheetExtractorXLSX(t *testing.T) {
	sheet := `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
    <row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>14</v></c></row>
  </sheetData>
</worksheet>`
	shared := `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>sku</t></si>
  <si><t>quantity</t></si>
  <si><t>AB-1</t></si>
</sst>`

	content := zipWithEntries(t, map[string]string{
		"xl/workbook.xml":          "<workbook/>",
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
	})
	doc := domain.NewSourceDocument("ledger.xlsx", domain.FormatSpreadsheet, content)

	units, err := NewSpreadsheetExtractor(&mockLogger{}).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Extract() produced %d units, want 1", len(units))
	}
	want := "sku\tquantity\nAB-1\t14"
	if units[0].Text != want {
		t.Errorf("unit text = %q, want %q", units[0].Text, want)
	}
}

func TestImageExtractorWithoutOCR(t *testing.T) {
	doc := domain.NewSourceDocument("scan.png", domain.FormatImage, []byte{0x89, 'P', 'N', 'G'})

	_, err := NewImageExtractor(&mockLogger{}, nil).Extract(context.Background(), doc)
	if !errors.Is(err, domain.ErrOCRUnavailable) {
		t.Errorf("Extract() error = %v, want ErrOCRUnavailable", err)
	}
}

func TestImageExtractorSingleUnit(t *testing.T) {
	doc := domain.NewSourceDocument("scan.png", domain.FormatImage, []byte{0x89, 'P', 'N', 'G'})
	ocr := &mockOCR{text: "RECEIPT  TOTAL 12.50", confidence: 0.92}

	units, err := NewImageExtractor(&mockLogger{}, ocr).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Extract() produced %d units, want 1", len(units))
	}
	if units[0].Method != domain.MethodOCR || units[0].Confidence != 0.92 {
		t.Errorf("unit = %+v", units[0])
	}
	if units[0].Text != "RECEIPT TOTAL 12.50" {
		t.Errorf("unit text not sanitized: %q", units[0].Text)
	}
}

func TestPDFExtractorCorruptInput(t *testing.T) {
	doc := domain.NewSourceDocument("bad.pdf", domain.FormatPDF, []byte("%PDF-1.4 but truncated"))

	_, err := NewPDFExtractor(&mockLogger{}, 32).Extract(context.Background(), doc)
	if !errors.Is(err, domain.ErrCorruptInput) {
		t.Errorf("Extract() error = %v, want ErrCorruptInput", err)
	}
}

func TestSanitizeText(t *testing.T) {
	got := sanitizeText("  a\tb   c\r\n\r\nd\x00e  ")
	want := "a b c\n\nde"
	if got != want {
		t.Errorf("sanitizeText() = %q, want %q", got, want)
	}
}
