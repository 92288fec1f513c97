package domain

import (
	"strconv"
	"strings"
)

// CellKind identifies how a decoded spreadsheet cell was typed by the decoder
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a loosely-typed spreadsheet value
type Cell struct {
	Kind   CellKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Number float64  `json:"number,omitempty"`
}

// Row is one decoded spreadsheet row
type Row []Cell

// Sheet is an ordered sequence of decoded rows
type Sheet []Row

// TextCell creates a text cell. Empty strings produce an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell creates a numeric cell
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// IsEmpty reports whether the cell carries no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// String renders the cell the way a spreadsheet shows it as text
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// At returns the cell at index i, or an empty cell when the row is shorter
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// TextAt returns the trimmed textual value of the cell at index i
func (r Row) TextAt(i int) string {
	return strings.TrimSpace(r.At(i).String())
}

// Rows builds a sheet from plain Go values, used by callers that already
// hold a grid (tests, CSV fixtures). Supported values are string, the
// integer and float kinds and nil.
func Rows(values ...[]any) Sheet {
	sheet := make(Sheet, 0, len(values))
	for _, vals := range values {
		row := make(Row, len(vals))
		for i, v := range vals {
			row[i] = cellFromValue(v)
		}
		sheet = append(sheet, row)
	}
	return sheet
}

func cellFromValue(v any) Cell {
	switch t := v.(type) {
	case nil:
		return Cell{}
	case string:
		return TextCell(t)
	case int:
		return NumberCell(float64(t))
	case int64:
		return NumberCell(float64(t))
	case float32:
		return NumberCell(float64(t))
	case float64:
		return NumberCell(t)
	default:
		return Cell{}
	}
}
