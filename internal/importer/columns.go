package importer

import (
	"strings"

	"contractpulse/pkg/contracts/domain"
)

// DefaultHeaderWindow is how many leading rows are scanned for a header
const DefaultHeaderWindow = 20

// ColumnMapping holds the column index of each field and the first data row
type ColumnMapping struct {
	CircuitID   int `json:"circuit_id"`
	Origin      int `json:"origin"`
	Destination int `json:"destination"`
	Programmer  int `json:"programmer"`
	Contracted  int `json:"contracted"`
	Realized    int `json:"realized"`
	DataStart   int `json:"data_start"`
}

// DefaultMapping is the fixed layout used when no header row is recognized:
// A circuit, B origin, C destination, D programmer, F contracted, H realized.
// Row 0 is assumed to be the header.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		CircuitID:   0,
		Origin:      1,
		Destination: 2,
		Programmer:  3,
		Contracted:  5,
		Realized:    7,
		DataStart:   1,
	}
}

// DetectHeader scans up to window rows for the first row holding both an
// ORIGEM and a DESTINO cell and maps the remaining columns from it. Columns
// not found in the header keep their default index.
func DetectHeader(rows domain.Sheet, window int) (ColumnMapping, bool) {
	if window <= 0 {
		window = DefaultHeaderWindow
	}
	limit := min(len(rows), window)

	for i := 0; i < limit; i++ {
		cells := headerCells(rows[i])

		origin := findCell(cells, func(c string) bool { return c == "ORIGEM" })
		destination := findCell(cells, func(c string) bool { return c == "DESTINO" })
		if origin == -1 || destination == -1 {
			continue
		}

		mapping := DefaultMapping()
		mapping.Origin = origin
		mapping.Destination = destination
		mapping.DataStart = i + 1

		if idx := findCell(cells, func(c string) bool {
			return strings.Contains(c, "CIRCUITO") || c == "#" || strings.Contains(c, "Nº")
		}); idx != -1 {
			mapping.CircuitID = idx
		}
		if idx := findCell(cells, func(c string) bool { return c == "CONTRATO" || c == "META" }); idx != -1 {
			mapping.Contracted = idx
		}
		if idx := findCell(cells, func(c string) bool { return c == "PROGRAMADOR" }); idx != -1 {
			mapping.Programmer = idx
		}
		if idx := findCell(cells, func(c string) bool {
			return c == "REALIZADO" || c == "REAL" || strings.Contains(c, "EXECUTADO")
		}); idx != -1 {
			mapping.Realized = idx
		}
		return mapping, true
	}
	return ColumnMapping{}, false
}

// MapColumns returns the detected mapping or the default one
func MapColumns(rows domain.Sheet, window int) (ColumnMapping, bool) {
	if mapping, ok := DetectHeader(rows, window); ok {
		return mapping, true
	}
	return DefaultMapping(), false
}

// headerCells upper-cases and trims every cell of a candidate header row.
// strings.ToUpper maps "º" to itself, so "Nº" survives normalization.
func headerCells(row domain.Row) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.ToUpper(strings.TrimSpace(c.String()))
	}
	return cells
}

func findCell(cells []string, match func(string) bool) int {
	for i, c := range cells {
		if match(c) {
			return i
		}
	}
	return -1
}
