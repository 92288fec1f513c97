// Package compliance computes contract compliance analytics over imported
// zones. Every function is pure: identical inputs give identical results.
package compliance

import (
	"math"
	"sort"
	"time"

	"contractpulse/pkg/contracts/domain"
)

// Compute runs a full analytics pass over zones for the given mode and
// reference date. zones is not modified.
func Compute(zones []domain.OriginZone, mode domain.ComplianceMode, ref time.Time) domain.AnalyticsResult {
	df := NewDateFactor(ref)
	threshold := mode.Threshold()

	result := domain.AnalyticsResult{
		Mode:          mode,
		Threshold:     threshold,
		DateFactor:    df,
		MonthProgress: df.Factor * 100,
		PerZone:       make([]domain.ZoneAnalytics, 0, len(zones)),
	}

	for _, zone := range zones {
		za, above, below := analyzeZone(zone, threshold, df.Factor)
		result.RouteHealth.Above += above
		result.RouteHealth.Below += below

		switch za.Status {
		case domain.StatusCritical:
			result.SystemHealth.CriticalZones++
		case domain.StatusWarning:
			result.SystemHealth.WarningZones++
		default:
			result.SystemHealth.HealthyZones++
		}
		result.PerZone = append(result.PerZone, za)
	}

	sort.SliceStable(result.PerZone, func(i, j int) bool {
		return result.PerZone[i].Contracted > result.PerZone[j].Contracted
	})

	for _, za := range result.PerZone {
		result.Totals.Contracted += za.Contracted
		result.Totals.MinTarget += za.MinTarget
		result.Totals.ProportionalMin += za.ProportionalMin
		result.Totals.Realized += za.Realized
		result.Totals.Gap += za.Gap
		result.Totals.Revenue += za.FinancialRevenue
		result.Totals.Bonus += za.FinancialBonus
	}
	result.Totals.Adherence = adherence(result.Totals.Realized, result.Totals.ProportionalMin)

	return result
}

// AnalyzeZone computes the analytics record of one zone
func AnalyzeZone(zone domain.OriginZone, mode domain.ComplianceMode, ref time.Time) domain.ZoneAnalytics {
	za, _, _ := analyzeZone(zone, mode.Threshold(), NewDateFactor(ref).Factor)
	return za
}

// analyzeZone also returns the route counts contributed to the network
// rollup. An exempt route under the ratio counts as neither above nor below.
func analyzeZone(zone domain.OriginZone, threshold, factor float64) (domain.ZoneAnalytics, int, int) {
	var contracted, realized float64
	failing, above := 0, 0

	for _, r := range zone.Routes {
		contracted += r.ContractedVolume
		realized += r.RealizedVolume

		ra := AnalyzeRoute(r)
		switch {
		case ra.Percentage >= domain.RouteMinThreshold:
			above++
		case ra.IsBelowThreshold:
			failing++
		}
	}

	minTarget := math.Floor(contracted * threshold)
	proportionalMin := math.Ceil(minTarget * factor)

	return domain.ZoneAnalytics{
		ZoneID:             zone.ID,
		Name:               zone.Name,
		Programmer:         zone.Programmer,
		FinancialRevenue:   zone.FinancialRevenue,
		FinancialBonus:     zone.FinancialBonus,
		RouteCount:         len(zone.Routes),
		Contracted:         contracted,
		Realized:           realized,
		MinTarget:          minTarget,
		ProportionalMin:    proportionalMin,
		Gap:                realized - proportionalMin,
		Adherence:          adherence(realized, proportionalMin),
		FailingRoutesCount: failing,
		Status:             NetworkZoneStatus(failing),
	}, above, failing
}

func adherence(realized, proportionalMin float64) float64 {
	if proportionalMin > 0 {
		return realized / proportionalMin * 100
	}
	return 0
}
