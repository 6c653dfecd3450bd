package schema

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Order is one row of orders.csv.
type Order struct {
	OrderID         string
	OrderDate       string    // raw text as found in the source
	Date            time.Time // parsed OrderDate; zero when unparseable
	Origin          string
	Destination     string
	OrderValueUSD   sql.NullFloat64
	Priority        string
	CustomerSegment string
	ProductCategory string
	VehicleID       string
	RouteID         string
}

// Route is one row of routes_distance.csv. OrderID is set when the export
// is keyed per order rather than per route.
type Route struct {
	RouteID         string
	OrderID         string
	Origin          string
	Destination     string
	DistanceKM      sql.NullFloat64
	FuelConsumption sql.NullFloat64
	TollCharges     sql.NullFloat64
	TrafficDelayMin sql.NullFloat64
}

// Vehicle is one row of vehicle_fleet.csv.
type Vehicle struct {
	VehicleID      string
	VehicleType    string
	AgeYears       sql.NullFloat64
	CO2KgPerKM     sql.NullFloat64
	CapacityKG     sql.NullFloat64
	FuelEfficiency sql.NullFloat64
	Status         string
	Location       string
}

// Performance is one row of delivery_performance.csv.
type Performance struct {
	OrderID        string
	RouteID        string
	Carrier        string
	PromisedDays   sql.NullFloat64
	ActualDays     sql.NullFloat64
	Status         string
	OnTime         sql.NullBool
	DelayDays      sql.NullFloat64
	CustomerRating sql.NullFloat64
	DeliveryCost   sql.NullFloat64
}

// Cost is one row of cost_breakdown.csv. Missing components are zero.
type Cost struct {
	OrderID     string
	Fuel        decimal.Decimal
	Labor       decimal.Decimal
	Maintenance decimal.Decimal
	Insurance   decimal.Decimal
	Packaging   decimal.Decimal
	Technology  decimal.Decimal
	Other       decimal.Decimal
}

// Total is the sum of all cost components.
func (c Cost) Total() decimal.Decimal {
	return decimal.Sum(c.Fuel, c.Labor, c.Maintenance, c.Insurance, c.Packaging, c.Technology, c.Other)
}

// Dataset is the typed content of the five sources after loading. A source
// that could not be loaded contributes an empty slice.
type Dataset struct {
	Orders      []Order
	Routes      []Route
	Vehicles    []Vehicle
	Performance []Performance
	Costs       []Cost
}

// MergedRecord is the denormalized per-order row: the order, whatever
// matched it in the other four sources, and the derived emission metrics.
//
// DistanceKM and CO2KgPerKM are the working copies the imputer fills; the
// joined Route and Vehicle keep the values as loaded.
type MergedRecord struct {
	Order

	Route       Route
	Vehicle     Vehicle
	Performance Performance
	Cost        Cost

	HasRoute       bool
	HasVehicle     bool
	HasPerformance bool
	HasCost        bool

	DistanceKM       sql.NullFloat64
	CO2KgPerKM       sql.NullFloat64
	DistanceImputed  bool
	CO2FactorImputed bool

	TotalCO2Kg float64
	// CCPV is TotalCO2Kg / OrderValueUSD. Valid is false when the order value
	// is zero, negative or missing: the metric is undefined for the record.
	CCPV sql.NullFloat64
}

// VehicleType returns the joined vehicle's type, or "".
func (m MergedRecord) VehicleType() string { return m.Vehicle.VehicleType }

// EffectiveRouteID is the order's route reference, falling back to the
// joined route's id.
func (m MergedRecord) EffectiveRouteID() string {
	if m.RouteID != "" {
		return m.RouteID
	}
	return m.Route.RouteID
}

// Lane returns "origin -> destination" from the order, falling back to the
// joined route, or "" when both ends are unknown.
func (m MergedRecord) Lane() string {
	o, d := m.Origin, m.Destination
	if o == "" {
		o = m.Route.Origin
	}
	if d == "" {
		d = m.Route.Destination
	}
	if o == "" && d == "" {
		return ""
	}
	return o + " -> " + d
}
