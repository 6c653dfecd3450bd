package schema

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"greenroute/internal/quality"
	"greenroute/internal/records"
)

// dateLayouts are tried in order when parsing order dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"02-01-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate parses s with the first matching layout in dateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// currencyNoise is stripped from numeric cells before parsing.
var currencyNoise = strings.NewReplacer(
	"$", "", "₹", "", "€", "", "£", "", ",", "", " ", "",
	"INR", "", "USD", "", "inr", "", "usd", "", "Rs.", "", "Rs", "",
)

// ParseMoney parses a monetary cell such as "$1,250.50" or "INR 300".
func ParseMoney(s string) (decimal.Decimal, error) {
	clean := currencyNoise.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}
	return decimal.NewFromString(clean)
}

// ParseNumber parses a plain numeric cell, tolerating thousands separators
// and currency symbols. NaN and infinities are rejected.
func ParseNumber(s string) (float64, error) {
	clean := currencyNoise.Replace(strings.TrimSpace(s))
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return f, nil
}

// decoder collects InvalidValue warnings while reading one source.
type decoder struct {
	src     Source
	invalid map[string]int // column -> count
	order   []string       // first-seen column order for stable reporting
}

func newDecoder(src Source) *decoder {
	return &decoder{src: src, invalid: map[string]int{}}
}

func (d *decoder) bad(col string) {
	if _, ok := d.invalid[col]; !ok {
		d.order = append(d.order, col)
	}
	d.invalid[col]++
}

func (d *decoder) float(r records.Record, col string) sql.NullFloat64 {
	s := r.String(col)
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := ParseNumber(s)
	if err != nil {
		d.bad(col)
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func (d *decoder) money(r records.Record, col string) sql.NullFloat64 {
	s := r.String(col)
	if s == "" {
		return sql.NullFloat64{}
	}
	m, err := ParseMoney(s)
	if err != nil {
		d.bad(col)
		return sql.NullFloat64{}
	}
	f, _ := m.Float64()
	return sql.NullFloat64{Float64: f, Valid: true}
}

func (d *decoder) amount(r records.Record, col string) decimal.Decimal {
	s := r.String(col)
	if s == "" {
		return decimal.Zero
	}
	m, err := ParseMoney(s)
	if err != nil {
		d.bad(col)
		return decimal.Zero
	}
	return m
}

func (d *decoder) warnings() []quality.Warning {
	out := make([]quality.Warning, 0, len(d.order))
	for _, col := range d.order {
		out = append(out, quality.Warning{
			Kind:    quality.InvalidValue,
			Source:  string(d.src),
			Column:  col,
			Message: "unparseable values treated as missing",
			Count:   d.invalid[col],
		})
	}
	return out
}

// DecodeOrders converts a normalized orders table to typed rows.
func DecodeOrders(t records.Table) ([]Order, []quality.Warning) {
	d := newDecoder(Orders)
	out := make([]Order, 0, len(t.Rows))
	for _, r := range t.Rows {
		o := Order{
			OrderID:         r.String(ColOrderID),
			OrderDate:       r.String(ColOrderDate),
			Origin:          r.String(ColOrigin),
			Destination:     r.String(ColDestination),
			OrderValueUSD:   d.money(r, ColOrderValueUSD),
			Priority:        r.String(ColPriority),
			CustomerSegment: r.String(ColCustomerSegment),
			ProductCategory: r.String(ColProductCategory),
			VehicleID:       r.String(ColVehicleID),
			RouteID:         r.String(ColRouteID),
		}
		if o.OrderDate != "" {
			if ts, ok := ParseDate(o.OrderDate); ok {
				o.Date = ts
			} else {
				d.bad(ColOrderDate)
			}
		}
		out = append(out, o)
	}
	return out, d.warnings()
}

// DecodeRoutes converts a normalized routes table to typed rows.
func DecodeRoutes(t records.Table) ([]Route, []quality.Warning) {
	d := newDecoder(Routes)
	out := make([]Route, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Route{
			RouteID:         r.String(ColRouteID),
			OrderID:         r.String(ColOrderID),
			Origin:          r.String(ColOrigin),
			Destination:     r.String(ColDestination),
			DistanceKM:      d.float(r, ColDistanceKM),
			FuelConsumption: d.float(r, ColFuelConsumption),
			TollCharges:     d.money(r, ColTollCharges),
			TrafficDelayMin: d.float(r, ColTrafficDelayMins),
		})
	}
	return out, d.warnings()
}

// DecodeVehicles converts a normalized vehicle fleet table to typed rows.
func DecodeVehicles(t records.Table) ([]Vehicle, []quality.Warning) {
	d := newDecoder(Vehicles)
	out := make([]Vehicle, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Vehicle{
			VehicleID:      r.String(ColVehicleID),
			VehicleType:    r.String(ColVehicleType),
			AgeYears:       d.float(r, ColAgeYears),
			CO2KgPerKM:     d.float(r, ColCO2KgPerKM),
			CapacityKG:     d.float(r, ColCapacityKG),
			FuelEfficiency: d.float(r, ColFuelEfficiency),
			Status:         r.String(ColStatus),
			Location:       r.String(ColLocation),
		})
	}
	return out, d.warnings()
}

// DecodePerformance converts a normalized delivery performance table to
// typed rows. OnTime comes from an explicit on_time column when present,
// otherwise from the status text, otherwise from actual <= promised days.
func DecodePerformance(t records.Table) ([]Performance, []quality.Warning) {
	d := newDecoder(Deliveries)
	out := make([]Performance, 0, len(t.Rows))
	for _, r := range t.Rows {
		p := Performance{
			OrderID:        r.String(ColOrderID),
			RouteID:        r.String(ColRouteID),
			Carrier:        r.String(ColCarrier),
			PromisedDays:   d.float(r, ColPromisedDays),
			ActualDays:     d.float(r, ColActualDays),
			Status:         r.String(ColDeliveryStatus),
			CustomerRating: d.float(r, ColRating),
			DeliveryCost:   d.money(r, ColDeliveryCost),
		}
		if p.PromisedDays.Valid && p.ActualDays.Valid {
			delay := p.ActualDays.Float64 - p.PromisedDays.Float64
			if delay < 0 {
				delay = 0
			}
			p.DelayDays = sql.NullFloat64{Float64: delay, Valid: true}
		}
		switch {
		case r.Has(ColOnTime):
			if b, ok := parseFlag(r.String(ColOnTime)); ok {
				p.OnTime = sql.NullBool{Bool: b, Valid: true}
			} else {
				d.bad(ColOnTime)
			}
		case p.Status != "":
			if b, ok := onTimeFromStatus(p.Status); ok {
				p.OnTime = sql.NullBool{Bool: b, Valid: true}
			}
		case p.DelayDays.Valid:
			p.OnTime = sql.NullBool{Bool: p.DelayDays.Float64 == 0, Valid: true}
		}
		out = append(out, p)
	}
	return out, d.warnings()
}

// DecodeCosts converts a normalized cost breakdown table to typed rows.
func DecodeCosts(t records.Table) ([]Cost, []quality.Warning) {
	d := newDecoder(Costs)
	out := make([]Cost, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Cost{
			OrderID:     r.String(ColOrderID),
			Fuel:        d.amount(r, ColFuelCost),
			Labor:       d.amount(r, ColLaborCost),
			Maintenance: d.amount(r, ColMaintenanceCost),
			Insurance:   d.amount(r, ColInsurance),
			Packaging:   d.amount(r, ColPackagingCost),
			Technology:  d.amount(r, ColTechnologyFee),
			Other:       d.amount(r, ColOtherOverhead),
		})
	}
	return out, d.warnings()
}

func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on-time", "on time", "ontime":
		return true, true
	case "0", "false", "f", "no", "n", "delayed", "late":
		return false, true
	}
	return false, false
}

func onTimeFromStatus(s string) (bool, bool) {
	k := foldKey(s)
	switch {
	case k == "on_time" || k == "ontime" || k == "delivered_on_time" || k == "early":
		return true, true
	case strings.Contains(k, "delay") || strings.Contains(k, "late"):
		return false, true
	}
	return false, false
}
