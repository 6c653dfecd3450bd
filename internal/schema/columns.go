package schema

// Canonical column names. No raw source header survives normalization
// unless it matches none of these.
const (
	ColOrderID         = "order_id"
	ColOrderDate       = "order_date"
	ColOrigin          = "origin"
	ColDestination     = "destination"
	ColOrderValueUSD   = "order_value_usd"
	ColPriority        = "priority"
	ColCustomerSegment = "customer_segment"
	ColProductCategory = "product_category"
	ColVehicleID       = "vehicle_id"
	ColRouteID         = "route_id"

	ColDistanceKM       = "distance_km"
	ColFuelConsumption  = "fuel_consumption_l"
	ColTollCharges      = "toll_charges"
	ColTrafficDelayMins = "traffic_delay_minutes"

	ColVehicleType    = "vehicle_type"
	ColAgeYears       = "age_years"
	ColCO2KgPerKM     = "co2_emissions_kg_per_km"
	ColCapacityKG     = "capacity_kg"
	ColFuelEfficiency = "fuel_efficiency_km_per_l"
	ColStatus         = "status"
	ColLocation       = "current_location"

	ColCarrier        = "carrier"
	ColPromisedDays   = "promised_delivery_days"
	ColActualDays     = "actual_delivery_days"
	ColDeliveryStatus = "delivery_status"
	ColOnTime         = "on_time"
	ColRating         = "customer_rating"
	ColDeliveryCost   = "delivery_cost"

	ColFuelCost        = "fuel_cost"
	ColLaborCost       = "labor_cost"
	ColMaintenanceCost = "vehicle_maintenance"
	ColInsurance       = "insurance"
	ColPackagingCost   = "packaging_cost"
	ColTechnologyFee   = "technology_platform_fee"
	ColOtherOverhead   = "other_overhead"
)

// canonicalColumns is every canonical name; each one is its own alias.
var canonicalColumns = []string{
	ColOrderID, ColOrderDate, ColOrigin, ColDestination, ColOrderValueUSD,
	ColPriority, ColCustomerSegment, ColProductCategory, ColVehicleID, ColRouteID,
	ColDistanceKM, ColFuelConsumption, ColTollCharges, ColTrafficDelayMins,
	ColVehicleType, ColAgeYears, ColCO2KgPerKM, ColCapacityKG, ColFuelEfficiency,
	ColStatus, ColLocation,
	ColCarrier, ColPromisedDays, ColActualDays, ColDeliveryStatus, ColOnTime,
	ColRating, ColDeliveryCost,
	ColFuelCost, ColLaborCost, ColMaintenanceCost, ColInsurance, ColPackagingCost,
	ColTechnologyFee, ColOtherOverhead,
}

// commonAliases maps folded header spellings seen in real exports to their
// canonical column. Keys are in foldKey form.
var commonAliases = map[string]string{
	"order_dat":    ColOrderDate,
	"orderdate":    ColOrderDate,
	"order_dt":     ColOrderDate,
	"date":         ColOrderDate,
	"origins":      ColOrigin,
	"source":       ColOrigin,
	"destinations": ColDestination,
	"dest":         ColDestination,

	"orderid":   ColOrderID,
	"order_no":  ColOrderID,
	"order_num": ColOrderID,

	"order_value":     ColOrderValueUSD,
	"order_value_inr": ColOrderValueUSD,
	"value":           ColOrderValueUSD,
	"order_amount":    ColOrderValueUSD,

	"priority_level":  ColPriority,
	"priority_levels": ColPriority,

	"route":    ColRouteID,
	"routeid":  ColRouteID,
	"route_no": ColRouteID,

	"vehicleid":   ColVehicleID,
	"vehicle":     ColVehicleID,
	"vehicle_no":  ColVehicleID,
	"vehicletype": ColVehicleType,

	"distance":       ColDistanceKM,
	"distance_kms":   ColDistanceKM,
	"distancekm":     ColDistanceKM,
	"distance_in_km": ColDistanceKM,

	"co2_per_km":             ColCO2KgPerKM,
	"co2_kg_per_km":          ColCO2KgPerKM,
	"co2_emission_kg_per_km": ColCO2KgPerKM,
	"co2_emissions_per_km":   ColCO2KgPerKM,
	"emissions_kg_per_km":    ColCO2KgPerKM,

	"age":             ColAgeYears,
	"vehicle_age":     ColAgeYears,
	"age_yrs":         ColAgeYears,
	"fuel_efficiency": ColFuelEfficiency,
	"capacity":        ColCapacityKG,

	"fuel_consumption":   ColFuelConsumption,
	"toll_charges_inr":   ColTollCharges,
	"traffic_delay_mins": ColTrafficDelayMins,
	"traffic_delay":      ColTrafficDelayMins,

	"promised_days":     ColPromisedDays,
	"actual_days":       ColActualDays,
	"ontime":            ColOnTime,
	"on_time_delivery":  ColOnTime,
	"rating":            ColRating,
	"delivery_cost_inr": ColDeliveryCost,

	"fuel":             ColFuelCost,
	"labor":            ColLaborCost,
	"labour_cost":      ColLaborCost,
	"maintenance":      ColMaintenanceCost,
	"maintenance_cost": ColMaintenanceCost,
	"packaging":        ColPackagingCost,
	"technology_fee":   ColTechnologyFee,
	"platform_fee":     ColTechnologyFee,
	"overhead":         ColOtherOverhead,
}

// sourceAliases holds spellings whose meaning depends on the table, such as
// a bare "id".
var sourceAliases = map[Source]map[string]string{
	Orders:     {"id": ColOrderID, "segment": ColCustomerSegment, "category": ColProductCategory},
	Routes:     {"id": ColRouteID},
	Vehicles:   {"id": ColVehicleID, "type": ColVehicleType, "location": ColLocation},
	Deliveries: {"id": ColOrderID, "status": ColDeliveryStatus, "cost": ColDeliveryCost},
	Costs:      {"id": ColOrderID, "other": ColOtherOverhead},
}

// IsCanonical reports whether name is one of the canonical column names.
func IsCanonical(name string) bool {
	for _, c := range canonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}
