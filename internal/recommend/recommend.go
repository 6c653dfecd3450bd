// Package recommend ranks routes and vehicle types into the two priority
// insights: where emissions concentrate, and which fleet segments emit the
// most carbon per unit of order value.
package recommend

import (
	"sort"

	"greenroute/internal/schema"
)

// DefaultTopRoutes is the size of the high-emission route list.
const DefaultTopRoutes = 5

// RouteEmission is one group of the high-emission route ranking.
type RouteEmission struct {
	// Key is the route id, or "origin -> destination" when the records carry
	// no route id.
	Key        string  `json:"key"`
	ByLane     bool    `json:"by_lane,omitempty"`
	TotalCO2Kg float64 `json:"total_co2_kg"`
	Orders     int     `json:"orders"`
}

// AssetEfficiency is one vehicle type of the inefficient asset ranking.
type AssetEfficiency struct {
	VehicleType string  `json:"vehicle_type"`
	MeanCCPV    float64 `json:"mean_ccpv"`
	// Records counts the records with a defined ccpv that make up the mean.
	Records int `json:"records"`
	// Undefined counts records of this type left out for an undefined ccpv.
	Undefined int `json:"undefined,omitempty"`
}

// RouteKey returns the grouping key for r and whether it is a lane rather
// than a route id. An empty key means r belongs to no group.
func RouteKey(r schema.MergedRecord) (string, bool) {
	if id := r.EffectiveRouteID(); id != "" {
		return id, false
	}
	if lane := r.Lane(); lane != "" {
		return lane, true
	}
	return "", false
}

// HighEmissionRoutes groups recs by route, sums TotalCO2Kg and returns the
// n largest groups in descending order; equal sums keep first-seen order.
// n <= 0 means DefaultTopRoutes. Records with neither a route id nor an
// origin or destination are skipped.
func HighEmissionRoutes(recs []schema.MergedRecord, n int) []RouteEmission {
	if n <= 0 {
		n = DefaultTopRoutes
	}
	groups := RouteTotals(recs)
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// RouteTotals is the full ranking HighEmissionRoutes truncates.
func RouteTotals(recs []schema.MergedRecord) []RouteEmission {
	pos := map[string]int{}
	var groups []RouteEmission
	for _, r := range recs {
		key, lane := RouteKey(r)
		if key == "" {
			continue
		}
		i, ok := pos[key]
		if !ok {
			i = len(groups)
			pos[key] = i
			groups = append(groups, RouteEmission{Key: key, ByLane: lane})
		}
		groups[i].TotalCO2Kg += r.TotalCO2Kg
		groups[i].Orders++
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].TotalCO2Kg > groups[b].TotalCO2Kg })
	return groups
}

// InefficientAssets groups recs by vehicle type and ranks the types by mean
// CCPV, highest first, over records whose CCPV is defined. Records without
// a vehicle type are skipped; types with no defined CCPV are left out.
// Equal means keep first-seen order.
func InefficientAssets(recs []schema.MergedRecord) []AssetEfficiency {
	type acc struct {
		sum       float64
		n         int
		undefined int
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
		if !r.CCPV.Valid {
			accs[i].undefined++
			continue
		}
		accs[i].sum += r.CCPV.Float64
		accs[i].n++
	}

	out := make([]AssetEfficiency, 0, len(types))
	for i, vt := range types {
		a := accs[i]
		if a.n == 0 {
			continue
		}
		out = append(out, AssetEfficiency{
			VehicleType: vt,
			MeanCCPV:    a.sum / float64(a.n),
			Records:     a.n,
			Undefined:   a.undefined,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].MeanCCPV > out[b].MeanCCPV })
	return out
}
