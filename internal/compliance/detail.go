package compliance

import (
	"sort"

	"contractpulse/pkg/contracts/domain"
)

// Detail builds the drill-down view of one zone. Routes are ordered by
// contracted volume, largest first; the zone itself is not modified.
func Detail(zone domain.OriginZone) domain.ZoneDetail {
	routes := make([]domain.RouteAnalytics, len(zone.Routes))
	for i, r := range zone.Routes {
		routes[i] = AnalyzeRoute(r)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ContractedVolume > routes[j].ContractedVolume
	})

	failing := 0
	for _, r := range routes {
		if r.IsBelowThreshold {
			failing++
		}
	}

	total := len(routes)
	health := 0.0
	if total > 0 {
		health = float64(total-failing) / float64(total) * 100
	}

	return domain.ZoneDetail{
		ZoneID:             zone.ID,
		Name:               zone.Name,
		Programmer:         zone.Programmer,
		Routes:             routes,
		FailingRoutesCount: failing,
		TotalRoutes:        total,
		HealthPercentage:   health,
		Status:             DetailZoneStatus(failing),
	}
}
