package exporter

import (
	"io"

	"contractpulse/pkg/contracts/domain"
)

// AnalyticsHeaders are the columns of the per-zone analytics export
var AnalyticsHeaders = []string{
	"zone_id",
	"zone",
	"programmer",
	"routes",
	"contracted",
	"min_target",
	"proportional_min",
	"realized",
	"gap",
	"adherence_pct",
	"failing_routes",
	"status",
	"revenue",
	"bonus",
}

// totalsLabel marks the network totals row
const totalsLabel = "TOTAL"

// AnalyticsRecords renders one row per zone in result order followed by a
// totals row
func AnalyticsRecords(result domain.AnalyticsResult) [][]string {
	records := make([][]string, 0, len(result.PerZone)+1)
	routes, failing := 0, 0
	for _, z := range result.PerZone {
		routes += z.RouteCount
		failing += z.FailingRoutesCount
		records = append(records, []string{
			z.ZoneID,
			z.Name,
			z.Programmer,
			formatInt(z.RouteCount),
			formatFloat(z.Contracted),
			formatFloat(z.MinTarget),
			formatFloat(z.ProportionalMin),
			formatFloat(z.Realized),
			formatFloat(z.Gap),
			formatFloat(z.Adherence),
			formatInt(z.FailingRoutesCount),
			string(z.Status),
			formatFloat(z.FinancialRevenue),
			formatFloat(z.FinancialBonus),
		})
	}

	t := result.Totals
	records = append(records, []string{
		"",
		totalsLabel,
		"",
		formatInt(routes),
		formatFloat(t.Contracted),
		formatFloat(t.MinTarget),
		formatFloat(t.ProportionalMin),
		formatFloat(t.Realized),
		formatFloat(t.Gap),
		formatFloat(t.Adherence),
		formatInt(failing),
		"",
		formatFloat(t.Revenue),
		formatFloat(t.Bonus),
	})
	return records
}

// WriteAnalytics writes the analytics export with a UTF-8 BOM
func WriteAnalytics(w io.Writer, result domain.AnalyticsResult) error {
	return WriteCSV(w, WriteOptions{
		Headers:   AnalyticsHeaders,
		Records:   AnalyticsRecords(result),
		BOMPrefix: true,
	})
}

// DetailHeaders are the columns of the zone drill-down export
var DetailHeaders = []string{
	"route_id",
	"origin",
	"destination",
	"contracted",
	"realized",
	"percentage",
	"out_of_circuit",
	"below_threshold",
}

// WriteZoneDetail writes the routes of one zone with a UTF-8 BOM
func WriteZoneDetail(w io.Writer, detail domain.ZoneDetail) error {
	records := make([][]string, 0, len(detail.Routes))
	for _, r := range detail.Routes {
		records = append(records, []string{
			r.ID,
			r.Origin,
			r.Destination,
			formatFloat(r.ContractedVolume),
			formatFloat(r.RealizedVolume),
			formatFloat(r.Percentage * 100),
			formatBool(r.IsOutOfCircuit),
			formatBool(r.IsBelowThreshold),
		})
	}
	return WriteCSV(w, WriteOptions{
		Headers:   DetailHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}
