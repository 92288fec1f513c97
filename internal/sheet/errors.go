package sheet

import "fmt"

// UnsupportedFormatError is returned when a file extension is not accepted
type UnsupportedFormatError struct {
	Filename  string
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("unsupported file format for %q: missing extension (accepted: %s)", e.Filename, acceptedList())
	}
	return fmt.Sprintf("unsupported file format %q (accepted: %s)", e.Extension, acceptedList())
}

// MalformedSheetError wraps a decoder failure
type MalformedSheetError struct {
	Filename string
	Cause    error
}

func (e *MalformedSheetError) Error() string {
	return fmt.Sprintf("failed to decode spreadsheet %q: %v", e.Filename, e.Cause)
}

// Unwrap exposes the underlying decoder failure
func (e *MalformedSheetError) Unwrap() error {
	return e.Cause
}
