package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"document-analyzer/internal/domain"
)

// rowsPerUnit bounds how many data rows one spreadsheet unit carries.
// The header row is repeated at the top of every block so each unit is
// independently interpretable.
const rowsPerUnit = 50

// SpreadsheetExtractor handles tabular inputs: CSV, TSV exports, and
// XLSX workbooks. Rows are grouped into fixed-size blocks, one unit per
// block, in sheet order then row order.
type SpreadsheetExtractor struct {
	logger domain.Logger
}

// NewSpreadsheetExtractor creates a spreadsheet extractor.
func NewSpreadsheetExtractor(logger domain.Logger) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{logger: logger}
}

// Extract produces row-block units with confidence 1.0.
func (e *SpreadsheetExtractor) Extract(ctx context.Context, doc *domain.SourceDocument) ([]domain.ExtractedUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows [][]string
	var err error
	if bytes.HasPrefix(doc.Content, []byte("PK\x03\x04")) {
		rows, err = readXLSXRows(ctx, doc.Content)
	} else {
		rows, err = readDelimitedRows(doc.Content)
	}
	if err != nil {
		return nil, err
	}

	units := blockRows(doc.ID, rows)
	e.logger.Debug("spreadsheet extraction complete", "document_id", doc.ID, "rows", len(rows), "units", len(units))
	return units, nil
}

// blockRows renders rows into tab-joined text blocks. The first row is
// treated as the header and prefixed to every block after the first.
func blockRows(documentID string, rows [][]string) []domain.ExtractedUnit {
	var nonEmpty [][]string
	for _, row := range rows {
		if rowHasContent(row) {
			nonEmpty = append(nonEmpty, row)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}

	header := renderRow(nonEmpty[0])
	data := nonEmpty[1:]

	var units []domain.ExtractedUnit
	appendUnit := func(text string) {
		units = append(units, domain.ExtractedUnit{
			DocumentID: documentID,
			Ordinal:    len(units),
			Text:       text,
			Confidence: 1.0,
			Method:     domain.MethodNative,
		})
	}

	if len(data) == 0 {
		appendUnit(header)
		return units
	}

	for start := 0; start < len(data); start += rowsPerUnit {
		end := start + rowsPerUnit
		if end > len(data) {
			end = len(data)
		}
		lines := make([]string, 0, end-start+1)
		lines = append(lines, header)
		for _, row := range data[start:end] {
			lines = append(lines, renderRow(row))
		}
		appendUnit(strings.Join(lines, "\n"))
	}
	return units
}

func renderRow(row []string) string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = sanitizeText(c)
	}
	return strings.Join(cells, "\t")
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

// readDelimitedRows parses CSV or TSV content, picking the delimiter
// from the header row. Ragged rows are tolerated.
func readDelimitedRows(content []byte) ([][]string, error) {
	text := strings.TrimPrefix(string(content), "\uFEFF")

	delim := ','
	nl := strings.IndexByte(text, '\n')
	header := text
	if nl >= 0 {
		header = text[:nl]
	}
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		delim = '\t'
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	return rows, nil
}

// xlsx structures for the two parts we read. Cell values live either
// inline or in the shared strings table, addressed by index.
type xlsxSharedStrings struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type xlsxSheet struct {
	Rows []struct {
		Cells []struct {
			Ref    string `xml:"r,attr"`
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// readXLSXRows flattens all worksheets of an XLSX workbook into rows,
// sheets in path order.
func readXLSXRows(ctx context.Context, content []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	shared, err := readSharedStrings(zr)
	if err != nil {
		return nil, err
	}

	var sheetFiles []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles = append(sheetFiles, f)
		}
	}
	if len(sheetFiles) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", domain.ErrCorruptInput)
	}
	sort.Slice(sheetFiles, func(i, j int) bool { return sheetFiles[i].Name < sheetFiles[j].Name })

	var rows [][]string
	for _, f := range sheetFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheetRows, err := readSheetRows(f, shared)
		if err != nil {
			return nil, err
		}
		rows = append(rows, sheetRows...)
	}
	return rows, nil
}

func readSharedStrings(zr *zip.Reader) ([]string, error) {
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "xl/sharedStrings.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, nil
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	var sst xlsxSharedStrings
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("%w: malformed shared strings: %v", domain.ErrCorruptInput, err)
	}

	strs := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if item.Text != "" {
			strs[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, run := range item.Runs {
			b.WriteString(run.Text)
		}
		strs[i] = b.String()
	}
	return strs, nil
}

func readSheetRows(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptInput, err)
	}

	var sheet xlsxSheet
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("%w: malformed worksheet: %v", domain.ErrCorruptInput, err)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, resolveCell(c.Type, c.Value, c.Inline.Text, shared))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// resolveCell maps a cell's stored value to its display string. Shared
// string indices out of range fall back to the raw value.
func resolveCell(cellType, value, inline string, shared []string) string {
	switch cellType {
	case "s":
		idx, err := strconv.Atoi(value)
		if err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return value
	case "inlineStr":
		return inline
	default:
		return value
	}
}
