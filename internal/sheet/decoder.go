package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"contractpulse/pkg/contracts/domain"
)

// Accepted file extensions
const (
	ExtXLSX = ".xlsx"
	ExtXLS  = ".xls"
	ExtCSV  = ".csv"
)

var acceptedExtensions = []string{ExtXLSX, ExtXLS, ExtCSV}

// plainNumber matches the cell texts a spreadsheet reader would type as numbers
var plainNumber = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// AcceptedExtensions lists the file extensions Decode understands
func AcceptedExtensions() []string {
	out := make([]string, len(acceptedExtensions))
	copy(out, acceptedExtensions)
	return out
}

func acceptedList() string {
	return strings.Join(acceptedExtensions, ", ")
}

// Extension returns the lower-cased extension of filename
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// CheckFormat validates the file extension without reading any content
func CheckFormat(filename string) error {
	ext := Extension(filename)
	for _, accepted := range acceptedExtensions {
		if ext == accepted {
			return nil
		}
	}
	return &UnsupportedFormatError{Filename: filename, Extension: ext}
}

// Decode reads the first worksheet of an .xlsx/.xls workbook or a .csv file
// into a grid of loosely-typed cells.
func Decode(filename string, r io.Reader) (domain.Sheet, error) {
	if err := CheckFormat(filename); err != nil {
		return nil, err
	}

	var (
		rows domain.Sheet
		err  error
	)
	switch Extension(filename) {
	case ExtCSV:
		rows, err = decodeCSV(r)
	default:
		rows, err = decodeWorkbook(r)
	}
	if err != nil {
		return nil, &MalformedSheetError{Filename: filename, Cause: err}
	}
	return rows, nil
}

func decodeWorkbook(r io.Reader) (domain.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no worksheets")
	}
	name := sheets[0]

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", name, err)
	}

	out := make(domain.Sheet, len(raw))
	for i, values := range raw {
		row := make(domain.Row, len(values))
		for j, v := range values {
			row[j] = workbookCell(f, name, j, i, v)
		}
		out[i] = row
	}
	return out, nil
}

// workbookCell types a raw workbook value. Cells stored as numbers (or with
// no explicit type and a numeric value) become number cells.
func workbookCell(f *excelize.File, sheetName string, col, row int, value string) domain.Cell {
	if value == "" {
		return domain.Cell{}
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return domain.TextCell(value)
	}
	kind, err := f.GetCellType(sheetName, axis)
	if err != nil {
		return domain.TextCell(value)
	}
	switch kind {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return domain.NumberCell(n)
		}
	}
	return domain.TextCell(value)
}

func decodeCSV(r io.Reader) (domain.Sheet, error) {
	br := bufio.NewReader(r)
	// Strip a UTF-8 BOM written by spreadsheet exports
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	out := make(domain.Sheet, len(records))
	for i, record := range records {
		row := make(domain.Row, len(record))
		for j, v := range record {
			row[j] = csvCell(v)
		}
		out[i] = row
	}
	return out, nil
}

// detectDelimiter picks ';' when the first line uses it more than ','
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func csvCell(v string) domain.Cell {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return domain.Cell{}
	}
	if plainNumber.MatchString(trimmed) {
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return domain.NumberCell(n)
		}
	}
	return domain.TextCell(v)
}
