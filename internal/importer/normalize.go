package importer

import (
	"regexp"
	"strconv"
	"strings"

	"contractpulse/pkg/contracts/domain"
)

// RowOutcome describes what the normalizer did with one input row
type RowOutcome int

const (
	RowAccepted RowOutcome = iota
	RowMissingID
	RowDuplicate
	RowMissingRoute
	RowTotal
)

func (o RowOutcome) String() string {
	switch o {
	case RowAccepted:
		return "accepted"
	case RowMissingID:
		return "missing_id"
	case RowDuplicate:
		return "duplicate"
	case RowMissingRoute:
		return "missing_route"
	case RowTotal:
		return "total"
	default:
		return "unknown"
	}
}

// NormalizedRow is one spreadsheet row reduced to canonical fields
type NormalizedRow struct {
	RowIndex    int
	CircuitID   string
	Origin      string
	Destination string
	Programmer  string
	Contracted  float64
	Realized    float64
}

var (
	nonNumeric    = regexp.MustCompile(`[^\d.]`)
	leadingNumber = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)`)
)

// ParseVolume reads a localized volume cell. Numeric cells are used as-is.
// Text drops "." thousands separators, turns the "," decimal separator into
// ".", strips everything else that is not a digit or dot and parses the
// leading number. Anything unparsable is 0.
func ParseVolume(c domain.Cell) float64 {
	switch c.Kind {
	case domain.CellNumber:
		return c.Number
	case domain.CellText:
		s := strings.ReplaceAll(c.Text, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		s = nonNumeric.ReplaceAllString(s, "")
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return 0
	}
}

// Normalizer turns rows into NormalizedRow values, suppressing repeated
// circuit ids within one batch.
type Normalizer struct {
	mapping    ColumnMapping
	seen       map[string]struct{}
	valid      int
	duplicates int
	skipped    int
}

// NewNormalizer creates a normalizer for one import batch
func NewNormalizer(mapping ColumnMapping) *Normalizer {
	return &Normalizer{
		mapping: mapping,
		seen:    make(map[string]struct{}),
	}
}

// Normalize processes one row. The circuit id is registered as seen before
// the route fields are checked, so a later row reusing the id of a rejected
// total row is still a duplicate.
func (n *Normalizer) Normalize(index int, row domain.Row) (NormalizedRow, RowOutcome) {
	m := n.mapping

	id := fieldText(row.At(m.CircuitID))
	if id == "" {
		n.skipped++
		return NormalizedRow{}, RowMissingID
	}
	if _, dup := n.seen[id]; dup {
		n.duplicates++
		return NormalizedRow{}, RowDuplicate
	}
	n.seen[id] = struct{}{}

	origin := strings.ToUpper(fieldText(row.At(m.Origin)))
	destination := strings.ToUpper(fieldText(row.At(m.Destination)))
	if origin == "" || destination == "" {
		n.skipped++
		return NormalizedRow{}, RowMissingRoute
	}
	if strings.Contains(origin, "TOTAL") {
		n.skipped++
		return NormalizedRow{}, RowTotal
	}

	programmer := fieldText(row.At(m.Programmer))
	if programmer == "" {
		programmer = domain.UnassignedProgrammer
	}

	n.valid++
	return NormalizedRow{
		RowIndex:    index,
		CircuitID:   id,
		Origin:      origin,
		Destination: destination,
		Programmer:  programmer,
		Contracted:  ParseVolume(row.At(m.Contracted)),
		Realized:    ParseVolume(row.At(m.Realized)),
	}, RowAccepted
}

// ValidRows is the number of rows accepted so far
func (n *Normalizer) ValidRows() int { return n.valid }

// DuplicateRows is the number of rows rejected for a repeated circuit id
func (n *Normalizer) DuplicateRows() int { return n.duplicates }

// SkippedRows is the number of rows rejected for missing fields or totals
func (n *Normalizer) SkippedRows() int { return n.skipped }

// fieldText returns the trimmed cell text. A numeric zero counts as no value,
// matching how the source spreadsheets leave placeholder zeros in text columns.
func fieldText(c domain.Cell) string {
	if c.Kind == domain.CellNumber && c.Number == 0 {
		return ""
	}
	return strings.TrimSpace(c.String())
}
