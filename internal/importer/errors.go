package importer

import "fmt"

// EmptyResultError is returned when no row survives normalization
type EmptyResultError struct {
	ValidRows     int
	DuplicateRows int
	SkippedRows   int
	ScannedRows   int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no valid rows found (scanned %d, duplicates %d, skipped %d)",
		e.ScannedRows, e.DuplicateRows, e.SkippedRows)
}
