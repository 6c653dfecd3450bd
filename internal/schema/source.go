// Package schema owns the canonical, typed view of the five logistics
// sources: which columns each one must provide, how raw header spellings
// map onto canonical names, and the Go types rows decode into.
package schema

import "fmt"

// Source identifies one of the five input datasets.
type Source string

const (
	Orders     Source = "orders"
	Routes     Source = "routes"
	Vehicles   Source = "vehicles"
	Deliveries Source = "performance"
	Costs      Source = "costs"
)

// AllSources lists the sources in load order.
var AllSources = []Source{Orders, Routes, Vehicles, Deliveries, Costs}

// DefaultFile returns the conventional file name for s.
func (s Source) DefaultFile() string {
	switch s {
	case Orders:
		return "orders.csv"
	case Routes:
		return "routes_distance.csv"
	case Vehicles:
		return "vehicle_fleet.csv"
	case Deliveries:
		return "delivery_performance.csv"
	case Costs:
		return "cost_breakdown.csv"
	}
	return string(s) + ".csv"
}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	for _, k := range AllSources {
		if k == s {
			return true
		}
	}
	return false
}

// ParseSource converts a config key to a Source.
func ParseSource(name string) (Source, error) {
	s := Source(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown source %q", name)
	}
	return s, nil
}

// RequiredColumns returns the canonical columns later stages read from s.
// A source lacking one of them still loads; the column is filled with nulls
// and reported.
func (s Source) RequiredColumns() []string {
	switch s {
	case Orders:
		return []string{ColOrderID, ColOrderDate, ColOrigin, ColOrderValueUSD, ColPriority, ColVehicleID}
	case Routes:
		return []string{ColRouteID, ColDistanceKM}
	case Vehicles:
		return []string{ColVehicleID, ColVehicleType, ColAgeYears, ColCO2KgPerKM}
	case Deliveries:
		return []string{ColOrderID}
	case Costs:
		return []string{ColOrderID}
	}
	return nil
}
