package importer

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"contractpulse/pkg/contracts/domain"
)

// Zone names folded into NORDESTE
var nordesteAliases = map[string]bool{
	"PERNAMBUCO":                     true,
	"PERNAMBUCO / PARAIBA / ALAGOAS": true,
}

// ZoneKey derives the aggregation key from a normalized origin
func ZoneKey(origin string) string {
	key := origin
	if strings.Contains(key, domain.OutOfCircuitMarker) {
		if clean := strings.TrimSpace(strings.Replace(key, domain.OutOfCircuitMarker, "", 1)); clean != "" {
			key = clean
		}
	}
	if nordesteAliases[key] {
		key = "NORDESTE"
	}
	return key
}

// ZoneID derives the short UI identifier of a zone. It is deterministic for
// a given name and position so snapshots stay reproducible.
func ZoneID(name string, seq int) string {
	prefix := []rune(name)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", name, seq)
	return fmt.Sprintf("%s-%04x", strings.ToUpper(string(prefix)), h.Sum32()&0xffff)
}

type zoneBuilder struct {
	zone domain.OriginZone
}

func (b *zoneBuilder) add(row NormalizedRow, expander *Expander) {
	if b.zone.Programmer == domain.UnassignedProgrammer && row.Programmer != domain.UnassignedProgrammer {
		b.zone.Programmer = row.Programmer
	}
	b.zone.FinancialRevenue += row.Realized * domain.RevenueRate
	b.zone.FinancialBonus += row.Realized * domain.BonusRate
	b.zone.Routes = append(b.zone.Routes, domain.RouteContract{
		ID:               row.CircuitID,
		Origin:           expander.Expand(row.Origin),
		Destination:      expander.Expand(row.Destination),
		ContractedVolume: row.Contracted,
		RealizedVolume:   row.Realized,
	})
}

// Aggregator folds normalized rows into zones keyed by origin
type Aggregator struct {
	expander *Expander
	order    []*zoneBuilder
	byKey    map[string]*zoneBuilder
}

// NewAggregator creates an empty aggregator
func NewAggregator(expander *Expander) *Aggregator {
	if expander == nil {
		expander = DefaultExpander()
	}
	return &Aggregator{
		expander: expander,
		byKey:    make(map[string]*zoneBuilder),
	}
}

// Add maps one normalized row onto its zone, creating the zone on first sight
func (a *Aggregator) Add(row NormalizedRow) {
	key := ZoneKey(row.Origin)
	b, ok := a.byKey[key]
	if !ok {
		b = &zoneBuilder{zone: domain.OriginZone{
			ID:         ZoneID(key, len(a.order)),
			Name:       key,
			Programmer: row.Programmer,
			Routes:     []domain.RouteContract{},
		}}
		a.byKey[key] = b
		a.order = append(a.order, b)
	}
	b.add(row, a.expander)
}

// Zones materializes the zones sorted by name with Portuguese collation
func (a *Aggregator) Zones() []domain.OriginZone {
	zones := make([]domain.OriginZone, len(a.order))
	for i, b := range a.order {
		zones[i] = b.zone.Clone()
	}
	SortZonesByName(zones)
	return zones
}

// SortZonesByName orders zones alphabetically using locale-aware comparison
func SortZonesByName(zones []domain.OriginZone) {
	c := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(zones, func(i, j int) bool {
		return c.CompareString(zones[i].Name, zones[j].Name) < 0
	})
}
