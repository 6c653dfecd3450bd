// Package insight computes the dashboard figures over a set of merged
// records: headline KPIs and the data behind the four charts.
package insight

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"greenroute/internal/recommend"
	"greenroute/internal/schema"
)

// DefaultTopRoutes is the length of the route hotspot series.
const DefaultTopRoutes = 10

// Summary holds the KPI tiles. Means are nil when nothing contributes.
type Summary struct {
	Records         int             `json:"records"`
	Orders          int             `json:"orders"`
	RoutesAnalysed  int             `json:"routes_analysed"`
	TotalCO2Kg      float64         `json:"total_co2_kg"`
	TotalCO2Tonnes  float64         `json:"total_co2_tonnes"`
	AvgCCPV         *float64        `json:"avg_ccpv"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	OnTimeRate      *float64        `json:"on_time_rate"`
	DistanceImputed int             `json:"distance_imputed"`
	CO2Imputed      int             `json:"co2_factor_imputed"`
}

// Summarize computes the KPI tiles. AvgCCPV averages strictly positive
// defined values. RoutesAnalysed counts distinct route keys as grouped by
// recommend.RouteKey. TotalCost sums the cost breakdown of joined records.
func Summarize(recs []schema.MergedRecord) Summary {
	s := Summary{Records: len(recs), TotalCost: decimal.Zero}
	orders := map[string]struct{}{}
	routes := map[string]struct{}{}
	var (
		ccpvSum      float64
		ccpvN        int
		onTime, perf int
	)
	for _, r := range recs {
		if r.OrderID != "" {
			orders[r.OrderID] = struct{}{}
		}
		if k, _ := recommend.RouteKey(r); k != "" {
			routes[k] = struct{}{}
		}
		s.TotalCO2Kg += r.TotalCO2Kg
		if r.CCPV.Valid && r.CCPV.Float64 > 0 {
			ccpvSum += r.CCPV.Float64
			ccpvN++
		}
		if r.HasCost {
			s.TotalCost = s.TotalCost.Add(r.Cost.Total())
		}
		if r.Performance.OnTime.Valid {
			perf++
			if r.Performance.OnTime.Bool {
				onTime++
			}
		}
		if r.DistanceImputed {
			s.DistanceImputed++
		}
		if r.CO2FactorImputed {
			s.CO2Imputed++
		}
	}
	s.Orders = len(orders)
	s.RoutesAnalysed = len(routes)
	s.TotalCO2Tonnes = s.TotalCO2Kg / 1000
	if ccpvN > 0 {
		v := ccpvSum / float64(ccpvN)
		s.AvgCCPV = &v
	}
	if perf > 0 {
		v := float64(onTime) / float64(perf)
		s.OnTimeRate = &v
	}
	return s
}

// TopRoutes returns the n highest-emitting routes (DefaultTopRoutes when
// n <= 0).
func TopRoutes(recs []schema.MergedRecord, n int) []recommend.RouteEmission {
	if n <= 0 {
		n = DefaultTopRoutes
	}
	return recommend.HighEmissionRoutes(recs, n)
}

// FleetPoint is one bubble of the fleet profile: mean CCPV against mean
// vehicle age, sized by total CO2.
type FleetPoint struct {
	VehicleType  string   `json:"vehicle_type"`
	MeanCCPV     *float64 `json:"mean_ccpv"`
	MeanAgeYears *float64 `json:"mean_age_years"`
	TotalCO2Kg   float64  `json:"total_co2_kg"`
	Records      int      `json:"records"`
}

// FleetProfile aggregates recs per vehicle type in first-seen order.
// Records without a vehicle type are skipped.
func FleetProfile(recs []schema.MergedRecord) []FleetPoint {
	type acc struct {
		ccpv, age mean
		co2       float64
		n         int
	}
	pos := map[string]int{}
	var (
		types []string
		accs  []acc
	)
	for _, r := range recs {
		vt := r.VehicleType()
		if vt == "" {
			continue
		}
		i, ok := pos[vt]
		if !ok {
			i = len(types)
			pos[vt] = i
			types = append(types, vt)
			accs = append(accs, acc{})
		}
		a := &accs[i]
		if r.CCPV.Valid {
			a.ccpv.add(r.CCPV.Float64)
		}
		if r.Vehicle.AgeYears.Valid {
			a.age.add(r.Vehicle.AgeYears.Float64)
		}
		a.co2 += r.TotalCO2Kg
		a.n++
	}
	out := make([]FleetPoint, len(types))
	for i, vt := range types {
		out[i] = FleetPoint{
			VehicleType:  vt,
			MeanCCPV:     accs[i].ccpv.value(),
			MeanAgeYears: accs[i].age.value(),
			TotalCO2Kg:   accs[i].co2,
			Records:      accs[i].n,
		}
	}
	return out
}

// Share is one labelled slice of a CO2 total.
type Share struct {
	Label      string  `json:"label"`
	TotalCO2Kg float64 `json:"total_co2_kg"`
	Fraction   float64 `json:"fraction"`
}

// OriginShare splits total CO2 by order origin in first-seen order.
// Records without an origin are grouped under "unknown".
func OriginShare(recs []schema.MergedRecord) []Share {
	pos := map[string]int{}
	var (
		out   []Share
		total float64
	)
	for _, r := range recs {
		label := r.Origin
		if label == "" {
			label = "unknown"
		}
		i, ok := pos[label]
		if !ok {
			i = len(out)
			pos[label] = i
			out = append(out, Share{Label: label})
		}
		out[i].TotalCO2Kg += r.TotalCO2Kg
		total += r.TotalCO2Kg
	}
	if total > 0 {
		for i := range out {
			out[i].Fraction = out[i].TotalCO2Kg / total
		}
	}
	return out
}

// DayPoint is the CO2 emitted by orders placed on one calendar day.
type DayPoint struct {
	Day        time.Time `json:"day"`
	TotalCO2Kg float64   `json:"total_co2_kg"`
	Orders     int       `json:"orders"`
}

// DailyTrend totals CO2 per order date, ascending. Records whose date did
// not parse are left out.
func DailyTrend(recs []schema.MergedRecord) []DayPoint {
	byDay := map[time.Time]*DayPoint{}
	for _, r := range recs {
		if r.Date.IsZero() {
			continue
		}
		y, m, d := r.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		p, ok := byDay[day]
		if !ok {
			p = &DayPoint{Day: day}
			byDay[day] = p
		}
		p.TotalCO2Kg += r.TotalCO2Kg
		p.Orders++
	}
	out := make([]DayPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
