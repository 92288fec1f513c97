package domain

import "errors"

var (
	// ErrZoneNotFound is returned when a zone id is not in the workspace
	ErrZoneNotFound = errors.New("zone not found")
	// ErrNoZones is returned when analytics are requested before any import
	ErrNoZones = errors.New("no contract spreadsheet imported")
)
