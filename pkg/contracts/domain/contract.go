package domain

// UnassignedProgrammer is the sentinel used when a row carries no programmer
const UnassignedProgrammer = "A Definir"

// OutOfCircuitMarker flags origins and destinations outside the contracted circuit
const OutOfCircuitMarker = "FORA DO CIRCUITO"

// Fixed per-unit financial estimate rates applied to realized volume
const (
	RevenueRate = 1500.0
	BonusRate   = 50.0
)

// RouteContract is one contracted circuit between an origin and a destination
type RouteContract struct {
	ID               string  `json:"id"`
	Origin           string  `json:"origin"`
	Destination      string  `json:"destination"`
	ContractedVolume float64 `json:"contracted_volume"`
	RealizedVolume   float64 `json:"realized_volume"`
}

// OriginZone groups the routes loaded from the same origin
type OriginZone struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Programmer       string          `json:"programmer"`
	FinancialRevenue float64         `json:"financial_revenue"`
	FinancialBonus   float64         `json:"financial_bonus"`
	Routes           []RouteContract `json:"routes"`
}

// Clone returns a deep copy of the zone so callers can mutate volumes safely
func (z OriginZone) Clone() OriginZone {
	routes := make([]RouteContract, len(z.Routes))
	copy(routes, z.Routes)
	z.Routes = routes
	return z
}

// CloneZones deep-copies a zone list
func CloneZones(zones []OriginZone) []OriginZone {
	out := make([]OriginZone, len(zones))
	for i, z := range zones {
		out[i] = z.Clone()
	}
	return out
}

// ImportResult is the outcome of a successful spreadsheet import
type ImportResult struct {
	Zones             []OriginZone `json:"zones"`
	ValidRowCount     int          `json:"valid_row_count"`
	DuplicateRowCount int          `json:"duplicate_row_count"`
	RouteCount        int          `json:"route_count"`
	HeaderDetected    bool         `json:"header_detected"`
}
