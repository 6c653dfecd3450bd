// Package dataset filters merged records with composable predicates.
package dataset

import (
	"strings"

	"greenroute/internal/schema"
)

// Predicate reports whether a record belongs to a selection.
type Predicate func(schema.MergedRecord) bool

// Filter returns the records matching every predicate, in input order, as a
// new slice. With no predicates it returns a copy of recs.
func Filter(recs []schema.MergedRecord, preds ...Predicate) []schema.MergedRecord {
	keep := And(preds...)
	out := make([]schema.MergedRecord, 0, len(recs))
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// And matches records accepted by all preds. Nil entries are ignored.
func And(preds ...Predicate) Predicate {
	return func(r schema.MergedRecord) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}

// ByVehicleType matches records whose vehicle type equals one of types,
// ignoring case and surrounding space. No types matches everything.
func ByVehicleType(types ...string) Predicate {
	return oneOf(types, func(r schema.MergedRecord) string { return r.VehicleType() })
}

// ByPriority matches records whose order priority equals one of levels,
// ignoring case and surrounding space. No levels matches everything.
func ByPriority(levels ...string) Predicate {
	return oneOf(levels, func(r schema.MergedRecord) string { return r.Priority })
}

func oneOf(values []string, field func(schema.MergedRecord) string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = fold(v); v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(schema.MergedRecord) bool { return true }
	}
	return func(r schema.MergedRecord) bool {
		_, ok := set[fold(field(r))]
		return ok
	}
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Values returns the distinct non-empty values of field in first-seen order,
// for building selection lists.
func Values(recs []schema.MergedRecord, field func(schema.MergedRecord) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range recs {
		v := strings.TrimSpace(field(r))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
