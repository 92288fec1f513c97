package domain

import "time"

// Receipt is a freight receipt already extracted from a PDF by an external
// collaborator. Each valid, non-duplicate receipt mapped to a zone counts as
// one realized load.
type Receipt struct {
	ID              string    `json:"id"`
	FileName        string    `json:"file_name"`
	ExtractionID    string    `json:"extraction_id"`
	OriginCity      string    `json:"origin_city"`
	DestinationCity string    `json:"destination_city"`
	ZoneID          string    `json:"zone_id,omitempty"`
	RouteID         string    `json:"route_id,omitempty"`
	IsDuplicate     bool      `json:"is_duplicate"`
	UploadedAt      time.Time `json:"uploaded_at"`

	// RequestedZoneID is the zone named by the submission, if any.
	// Rebinding after an import starts from it again.
	RequestedZoneID string `json:"-"`
}

// Counted reports whether the receipt contributes a realized load
func (r Receipt) Counted() bool {
	return r.RouteID != "" && !r.IsDuplicate
}

// ReceiptStats summarizes the receipt ledger
type ReceiptStats struct {
	Total      int `json:"total"`
	ValidLoads int `json:"valid_loads"`
	Duplicates int `json:"duplicates"`
	Unmapped   int `json:"unmapped"`
}
