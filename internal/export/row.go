package export

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"greenroute/internal/schema"
)

// Float is an optional number written in shortest round-trip form without
// exponent ('f', -1). Missing values are empty cells.
type Float sql.NullFloat64

// MarshalCSV implements csvutil.Marshaler.
func (f Float) MarshalCSV() ([]byte, error) {
	if !f.Valid {
		return nil, nil
	}
	return strconv.AppendFloat(nil, f.Float64, 'f', -1, 64), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (f *Float) UnmarshalCSV(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*f = Float{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float{Float64: v, Valid: true}
	return nil
}

func (f Float) value() any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

// Flag is an optional boolean written as "true", "false" or an empty cell.
type Flag sql.NullBool

// MarshalCSV implements csvutil.Marshaler.
func (f Flag) MarshalCSV() ([]byte, error) {
	if !f.Valid {
		return nil, nil
	}
	return strconv.AppendBool(nil, f.Bool), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (f *Flag) UnmarshalCSV(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*f = Flag{}
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f = Flag{Bool: v, Valid: true}
	return nil
}

func (f Flag) value() any {
	if !f.Valid {
		return nil
	}
	return f.Bool
}

// Money is an optional decimal amount in its exact string form.
type Money decimal.NullDecimal

// MarshalCSV implements csvutil.Marshaler.
func (m Money) MarshalCSV() ([]byte, error) {
	if !m.Valid {
		return nil, nil
	}
	return []byte(m.Decimal.String()), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (m *Money) UnmarshalCSV(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*m = Money{Decimal: d, Valid: true}
	return nil
}

func (m Money) value() any {
	if !m.Valid {
		return nil
	}
	return m.Decimal.InexactFloat64()
}

// Row is one exported record. Field order is the export column order; see
// Columns.
type Row struct {
	OrderID          string `csv:"order_id"`
	OrderDate        string `csv:"order_date"`
	Origin           string `csv:"origin"`
	Destination      string `csv:"destination"`
	Priority         string `csv:"priority"`
	CustomerSegment  string `csv:"customer_segment"`
	ProductCategory  string `csv:"product_category"`
	OrderValueUSD    Float  `csv:"order_value_usd"`
	RouteID          string `csv:"route_id"`
	VehicleID        string `csv:"vehicle_id"`
	VehicleType      string `csv:"vehicle_type"`
	VehicleAgeYears  Float  `csv:"age_years"`
	DistanceKM       Float  `csv:"distance_km"`
	DistanceImputed  bool   `csv:"distance_imputed"`
	CO2KgPerKM       Float  `csv:"co2_emissions_kg_per_km"`
	CO2FactorImputed bool   `csv:"co2_factor_imputed"`
	TotalCO2Kg       Float  `csv:"total_co2_kg"`
	CCPV             Float  `csv:"ccpv"`
	Carrier          string `csv:"carrier"`
	OnTime           Flag   `csv:"on_time"`
	DelayDays        Float  `csv:"delay_days"`
	TotalCost        Money  `csv:"total_cost"`
}

// dateLayout is the export form of order dates.
const dateLayout = "2006-01-02"

// FromRecord flattens a merged record. The order date is written as
// YYYY-MM-DD when it parsed, otherwise as loaded.
func FromRecord(m schema.MergedRecord) Row {
	date := m.OrderDate
	if !m.Date.IsZero() {
		date = m.Date.Format(dateLayout)
	}
	r := Row{
		OrderID:          m.OrderID,
		OrderDate:        date,
		Origin:           m.Origin,
		Destination:      m.Destination,
		Priority:         m.Priority,
		CustomerSegment:  m.CustomerSegment,
		ProductCategory:  m.ProductCategory,
		OrderValueUSD:    Float(m.OrderValueUSD),
		RouteID:          m.EffectiveRouteID(),
		VehicleID:        m.VehicleID,
		VehicleType:      m.VehicleType(),
		VehicleAgeYears:  Float(m.Vehicle.AgeYears),
		DistanceKM:       Float(m.DistanceKM),
		DistanceImputed:  m.DistanceImputed,
		CO2KgPerKM:       Float(m.CO2KgPerKM),
		CO2FactorImputed: m.CO2FactorImputed,
		TotalCO2Kg:       Float{Float64: m.TotalCO2Kg, Valid: true},
		CCPV:             Float(m.CCPV),
		Carrier:          m.Performance.Carrier,
		OnTime:           Flag(m.Performance.OnTime),
		DelayDays:        Float(m.Performance.DelayDays),
	}
	if m.HasCost {
		r.TotalCost = Money{Decimal: m.Cost.Total(), Valid: true}
	}
	return r
}

// FromRecords flattens recs in order.
func FromRecords(recs []schema.MergedRecord) []Row {
	out := make([]Row, len(recs))
	for i, m := range recs {
		out[i] = FromRecord(m)
	}
	return out
}

// values returns the row in Columns order with database-friendly types:
// nil for missing values, a time.Time for parsable dates.
func (r Row) values() []any {
	var date any
	if t, ok := schema.ParseDate(r.OrderDate); ok {
		date = t
	}
	return []any{
		r.OrderID,
		date,
		r.Origin,
		r.Destination,
		r.Priority,
		r.CustomerSegment,
		r.ProductCategory,
		r.OrderValueUSD.value(),
		r.RouteID,
		r.VehicleID,
		r.VehicleType,
		r.VehicleAgeYears.value(),
		r.DistanceKM.value(),
		r.DistanceImputed,
		r.CO2KgPerKM.value(),
		r.CO2FactorImputed,
		r.TotalCO2Kg.value(),
		r.CCPV.value(),
		r.Carrier,
		r.OnTime.value(),
		r.DelayDays.value(),
		r.TotalCost.value(),
	}
}
