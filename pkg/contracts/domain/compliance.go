package domain

import (
	"fmt"
	"strings"
)

// ComplianceMode selects the end-of-period completion threshold
type ComplianceMode string

const (
	// ModeBonus drives the bonus target (90% of contracted volume)
	ModeBonus ComplianceMode = "BONUS"
	// ModeGIF drives the GIF target (95% of contracted volume)
	ModeGIF ComplianceMode = "GIF"
)

// Compliance thresholds per mode and the per-route minimum ratio
const (
	ComplianceThreshold    = 0.90
	ComplianceThresholdGIF = 0.95
	RouteMinThreshold      = 0.40
)

// Threshold returns the completion ratio for the mode
func (m ComplianceMode) Threshold() float64 {
	if m == ModeGIF {
		return ComplianceThresholdGIF
	}
	return ComplianceThreshold
}

// Valid reports whether m is a known mode
func (m ComplianceMode) Valid() bool {
	return m == ModeBonus || m == ModeGIF
}

// ParseComplianceMode accepts a mode name case-insensitively
func ParseComplianceMode(s string) (ComplianceMode, error) {
	m := ComplianceMode(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown compliance mode %q", s)
	}
	return m, nil
}

// HealthStatus is the discrete health classification of a zone
type HealthStatus string

const (
	StatusCritical HealthStatus = "CRITICAL"
	StatusWarning  HealthStatus = "WARNING"
	StatusGood     HealthStatus = "GOOD"
)

// DateFactor is the fraction of the calendar month elapsed at a reference date
type DateFactor struct {
	CurrentDay    int     `json:"current_day"`
	TotalDays     int     `json:"total_days"`
	Factor        float64 `json:"factor"`
	FormattedDate string  `json:"formatted_date"`
}

// RouteAnalytics is the per-route compliance view
type RouteAnalytics struct {
	RouteContract
	Percentage       float64 `json:"percentage"`
	IsOutOfCircuit   bool    `json:"is_out_of_circuit"`
	IsBelowThreshold bool    `json:"is_below_threshold"`
}

// ZoneAnalytics is the derived per-zone compliance record
type ZoneAnalytics struct {
	ZoneID             string       `json:"zone_id"`
	Name               string       `json:"name"`
	Programmer         string       `json:"programmer"`
	FinancialRevenue   float64      `json:"financial_revenue"`
	FinancialBonus     float64      `json:"financial_bonus"`
	RouteCount         int          `json:"route_count"`
	Contracted         float64      `json:"contracted"`
	Realized           float64      `json:"realized"`
	MinTarget          float64      `json:"min_target"`
	ProportionalMin    float64      `json:"proportional_min"`
	Gap                float64      `json:"gap"`
	Adherence          float64      `json:"adherence"`
	FailingRoutesCount int          `json:"failing_routes_count"`
	Status             HealthStatus `json:"status"`
}

// AggregateAnalytics sums the per-zone figures across the network
type AggregateAnalytics struct {
	Contracted      float64 `json:"contracted"`
	MinTarget       float64 `json:"min_target"`
	ProportionalMin float64 `json:"proportional_min"`
	Realized        float64 `json:"realized"`
	Gap             float64 `json:"gap"`
	Revenue         float64 `json:"revenue"`
	Bonus           float64 `json:"bonus"`
	Adherence       float64 `json:"adherence"`
}

// RouteHealth counts routes above and below the route minimum ratio
type RouteHealth struct {
	Above int `json:"above"`
	Below int `json:"below"`
}

// SystemHealth counts zones by network status
type SystemHealth struct {
	CriticalZones int `json:"critical_zones"`
	WarningZones  int `json:"warning_zones"`
	HealthyZones  int `json:"healthy_zones"`
}

// AnalyticsResult is the full output of an analytics pass
type AnalyticsResult struct {
	Mode          ComplianceMode     `json:"mode"`
	Threshold     float64            `json:"threshold"`
	DateFactor    DateFactor         `json:"date_factor"`
	MonthProgress float64            `json:"month_progress"`
	PerZone       []ZoneAnalytics    `json:"per_zone"`
	Totals        AggregateAnalytics `json:"totals"`
	RouteHealth   RouteHealth        `json:"route_health"`
	SystemHealth  SystemHealth       `json:"system_health"`
}

// ZoneDetail is the single-zone drill-down view
type ZoneDetail struct {
	ZoneID             string           `json:"zone_id"`
	Name               string           `json:"name"`
	Programmer         string           `json:"programmer"`
	Routes             []RouteAnalytics `json:"routes"`
	FailingRoutesCount int              `json:"failing_routes_count"`
	TotalRoutes        int              `json:"total_routes"`
	HealthPercentage   float64          `json:"health_percentage"`
	Status             HealthStatus     `json:"status"`
}
