// Package events defines the messages pushed to dashboards over the
// websocket connection.
package events

import "contractpulse/pkg/contracts/domain"

// Message types
const (
	// TypeConnection is sent once to each client after it registers
	TypeConnection = "connection"

	// TypeZonesReplaced follows every successful spreadsheet import
	TypeZonesReplaced = "zones:replaced"

	// TypeReceiptsChanged follows every change to the receipt ledger
	TypeReceiptsChanged = "receipts:changed"
)

// Connection is the payload of a connection message
type Connection struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// ZonesReplaced is the payload of a zones:replaced message
type ZonesReplaced struct {
	FileName          string `json:"file_name,omitempty"`
	ZoneCount         int    `json:"zone_count"`
	RouteCount        int    `json:"route_count"`
	ValidRowCount     int    `json:"valid_row_count"`
	DuplicateRowCount int    `json:"duplicate_row_count"`
}

// ReceiptsChanged is the payload of a receipts:changed message
type ReceiptsChanged struct {
	Added   int                 `json:"added,omitempty"`
	Removed int                 `json:"removed,omitempty"`
	Stats   domain.ReceiptStats `json:"stats"`
}
