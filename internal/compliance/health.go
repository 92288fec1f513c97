package compliance

import (
	"strings"

	"contractpulse/pkg/contracts/domain"
)

// NetworkZoneStatus classifies a zone for the network rollup:
// more than two failing routes is CRITICAL, any failing route is WARNING.
func NetworkZoneStatus(failing int) domain.HealthStatus {
	switch {
	case failing > 2:
		return domain.StatusCritical
	case failing > 0:
		return domain.StatusWarning
	default:
		return domain.StatusGood
	}
}

// DetailZoneStatus classifies a zone for its drill-down view. It never
// reports CRITICAL; any failing route is WARNING.
//
// This intentionally differs from NetworkZoneStatus. Both rules are in use
// and must not be merged without a product decision.
func DetailZoneStatus(failing int) domain.HealthStatus {
	if failing > 0 {
		return domain.StatusWarning
	}
	return domain.StatusGood
}

// IsOutOfCircuit reports whether a route is exempt from the minimum ratio
func IsOutOfCircuit(r domain.RouteContract) bool {
	return strings.Contains(r.Destination, domain.OutOfCircuitMarker)
}

// RouteRatio is realized over contracted volume, 0 when nothing was contracted
func RouteRatio(r domain.RouteContract) float64 {
	if r.ContractedVolume > 0 {
		return r.RealizedVolume / r.ContractedVolume
	}
	return 0
}

// AnalyzeRoute evaluates one route against the route minimum ratio
func AnalyzeRoute(r domain.RouteContract) domain.RouteAnalytics {
	pct := RouteRatio(r)
	exempt := IsOutOfCircuit(r)
	return domain.RouteAnalytics{
		RouteContract:    r,
		Percentage:       pct,
		IsOutOfCircuit:   exempt,
		IsBelowThreshold: pct < domain.RouteMinThreshold && !exempt,
	}
}
