package receipts

import (
	"strings"

	"contractpulse/pkg/contracts/domain"
)

// ResolveZone finds the zone a receipt belongs to: by explicit zone id, or
// else by the first zone whose name appears in the origin city.
func ResolveZone(zones []domain.OriginZone, zoneID, originCity string) int {
	if zoneID != "" {
		for i, z := range zones {
			if z.ID == zoneID {
				return i
			}
		}
		return -1
	}
	origin := strings.ToUpper(originCity)
	if origin == "" {
		return -1
	}
	for i, z := range zones {
		if z.Name != "" && (strings.Contains(origin, z.Name) || strings.Contains(z.Name, origin)) {
			return i
		}
	}
	return -1
}

// ResolveRoute picks the route of a zone that receives a receipt's load:
// the first route whose destination contains the destination city, else
// the zone's first route. It returns -1 for a zone without routes.
func ResolveRoute(zone domain.OriginZone, destinationCity string) int {
	if len(zone.Routes) == 0 {
		return -1
	}
	dest := strings.ToUpper(strings.TrimSpace(destinationCity))
	if dest != "" {
		for i, r := range zone.Routes {
			if strings.Contains(strings.ToUpper(r.Destination), dest) {
				return i
			}
		}
	}
	return 0
}

func bind(zones []domain.OriginZone, r *domain.Receipt) {
	zi := ResolveZone(zones, r.ZoneID, r.OriginCity)
	if zi < 0 {
		return
	}
	ri := ResolveRoute(zones[zi], r.DestinationCity)
	if ri < 0 {
		return
	}
	r.ZoneID = zones[zi].ID
	r.RouteID = zones[zi].Routes[ri].ID
}

// adjust moves the realized volume of the receipt's route by delta units
// and keeps the zone's financial estimates consistent with it.
func adjust(zones []domain.OriginZone, r domain.Receipt, delta float64) {
	for zi := range zones {
		z := &zones[zi]
		if z.ID != r.ZoneID {
			continue
		}
		for ri := range z.Routes {
			if z.Routes[ri].ID != r.RouteID {
				continue
			}
			z.Routes[ri].RealizedVolume += delta
			z.FinancialRevenue += delta * domain.RevenueRate
			z.FinancialBonus += delta * domain.BonusRate
			return
		}
	}
}
