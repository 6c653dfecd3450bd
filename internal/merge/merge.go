// Package merge joins the typed sources into one MergedRecord per order.
package merge

import (
	"fmt"
	"strings"

	"greenroute/internal/quality"
	"greenroute/internal/schema"
)

// maxListedKeys caps how many duplicate keys a warning message names.
const maxListedKeys = 5

const firstWins = "first occurrence used"

// index maps a join key to the row position of its first occurrence.
type index struct {
	first map[string]int
	extra int
	keys  []string
}

func buildIndex(n int, key func(i int) string) index {
	ix := index{first: make(map[string]int, n)}
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			continue
		}
		if _, ok := ix.first[k]; ok {
			ix.extra++
			if !seen[k] {
				seen[k] = true
				ix.keys = append(ix.keys, k)
			}
			continue
		}
		ix.first[k] = i
	}
	return ix
}

func (ix index) lookup(k string) (int, bool) {
	if k == "" {
		return 0, false
	}
	i, ok := ix.first[k]
	return i, ok
}

func (ix index) warning(src schema.Source, col, action string) (quality.Warning, bool) {
	if ix.extra == 0 {
		return quality.Warning{}, false
	}
	keys := ix.keys
	more := ""
	if len(keys) > maxListedKeys {
		more = fmt.Sprintf(" and %d more", len(keys)-maxListedKeys)
		keys = keys[:maxListedKeys]
	}
	return quality.Warning{
		Kind:    quality.DuplicateKey,
		Source:  string(src),
		Column:  col,
		Message: fmt.Sprintf("duplicate %s %s%s; %s", col, strings.Join(keys, ", "), more, action),
		Count:   ix.extra,
	}, true
}

// routeJoins reports which route keys the orders join by: their own
// route_id, or the route table's order_id when they carry none.
func routeJoins(orders []schema.Order) (byRouteID, byOrderID bool) {
	for _, o := range orders {
		if o.RouteID != "" {
			byRouteID = true
		} else {
			byOrderID = true
		}
	}
	return byRouteID, byOrderID
}

// Merge left-joins routes, vehicles, performance and costs onto orders. The
// result has exactly one record per order row, in order row order.
//
// Join keys: route by the order's route_id, falling back to the route
// table's order_id when the order has no route reference; vehicle by
// vehicle_id; performance and cost by order_id. When a joined table repeats
// a key the first occurrence wins and a DuplicateKey warning is returned.
// Route duplicates are only reported for the key the orders join by.
// Repeated order ids are kept and reported. A record's origin and
// destination fall back to the joined route's when the order lacks them.
func Merge(ds schema.Dataset) ([]schema.MergedRecord, []quality.Warning) {
	var warnings []quality.Warning
	report := func(ix index, src schema.Source, col, action string) {
		if w, ok := ix.warning(src, col, action); ok {
			warnings = append(warnings, w)
		}
	}

	orders := buildIndex(len(ds.Orders), func(i int) string { return ds.Orders[i].OrderID })
	report(orders, schema.Orders, schema.ColOrderID, "all rows kept")

	routes := buildIndex(len(ds.Routes), func(i int) string { return ds.Routes[i].RouteID })
	routesByOrder := buildIndex(len(ds.Routes), func(i int) string { return ds.Routes[i].OrderID })
	vehicles := buildIndex(len(ds.Vehicles), func(i int) string { return ds.Vehicles[i].VehicleID })
	perf := buildIndex(len(ds.Performance), func(i int) string { return ds.Performance[i].OrderID })
	costs := buildIndex(len(ds.Costs), func(i int) string { return ds.Costs[i].OrderID })
	byRouteID, byOrderID := routeJoins(ds.Orders)
	if byRouteID {
		report(routes, schema.Routes, schema.ColRouteID, firstWins)
	}
	if byOrderID {
		report(routesByOrder, schema.Routes, schema.ColOrderID, firstWins)
	}
	report(vehicles, schema.Vehicles, schema.ColVehicleID, firstWins)
	report(perf, schema.Deliveries, schema.ColOrderID, firstWins)
	report(costs, schema.Costs, schema.ColOrderID, firstWins)

	out := make([]schema.MergedRecord, len(ds.Orders))
	for i, o := range ds.Orders {
		m := schema.MergedRecord{Order: o}

		ri, ok := routes.lookup(o.RouteID)
		if !ok && o.RouteID == "" {
			ri, ok = routesByOrder.lookup(o.OrderID)
		}
		if ok {
			m.Route, m.HasRoute = ds.Routes[ri], true
			m.DistanceKM = m.Route.DistanceKM
			if m.Origin == "" {
				m.Origin = m.Route.Origin
			}
			if m.Destination == "" {
				m.Destination = m.Route.Destination
			}
		}
		if vi, ok := vehicles.lookup(o.VehicleID); ok {
			m.Vehicle, m.HasVehicle = ds.Vehicles[vi], true
			m.CO2KgPerKM = m.Vehicle.CO2KgPerKM
		}
		if pi, ok := perf.lookup(o.OrderID); ok {
			m.Performance, m.HasPerformance = ds.Performance[pi], true
		}
		if ci, ok := costs.lookup(o.OrderID); ok {
			m.Cost, m.HasCost = ds.Costs[ci], true
		}
		out[i] = m
	}
	return out, warnings
}
