package dataset

import (
	"reflect"
	"testing"

	"greenroute/internal/schema"
)

func rec(id, vt, priority string) schema.MergedRecord {
	return schema.MergedRecord{
		Order:   schema.Order{OrderID: id, Priority: priority},
		Vehicle: schema.Vehicle{VehicleType: vt},
	}
}

func ids(recs []schema.MergedRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.OrderID)
	}
	return out
}

func TestFilter(t *testing.T) {
	t.Parallel()

	recs := []schema.MergedRecord{
		rec("1", "Truck", "Express"),
		rec("2", "Van", "Standard"),
		rec("3", "truck", "Economy"),
		rec("4", "", "Express"),
	}

	tests := []struct {
		name  string
		preds []Predicate
		want  []string
	}{
		{name: "no_predicates", want: []string{"1", "2", "3", "4"}},
		{name: "empty_selection_matches_all", preds: []Predicate{ByVehicleType(), ByPriority(" ")}, want: []string{"1", "2", "3", "4"}},
		{name: "vehicle_type_case_insensitive", preds: []Predicate{ByVehicleType("TRUCK")}, want: []string{"1", "3"}},
		{name: "priority_any_of", preds: []Predicate{ByPriority("express", "economy")}, want: []string{"1", "3", "4"}},
		{name: "combined", preds: []Predicate{ByVehicleType("truck"), ByPriority("Express")}, want: []string{"1"}},
		{name: "nil_predicate_ignored", preds: []Predicate{nil, ByVehicleType("Van")}, want: []string{"2"}},
		{name: "no_match", preds: []Predicate{ByVehicleType("Bike")}, want: []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ids(Filter(recs, tt.preds...)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFilterReturnsNewSlice verifies the result does not alias the input.
func TestFilterReturnsNewSlice(t *testing.T) {
	t.Parallel()

	recs := []schema.MergedRecord{rec("1", "Truck", "Express")}
	out := Filter(recs)
	out[0].OrderID = "changed"
	if recs[0].OrderID != "1" {
		t.Fatalf("input mutated through Filter result")
	}
}

func TestValues(t *testing.T) {
	t.Parallel()

	recs := []schema.MergedRecord{
		rec("1", "Truck", "Express"),
		rec("2", "Van", "Express"),
		rec("3", "Truck", ""),
	}
	got := Values(recs, func(r schema.MergedRecord) string { return r.Priority })
	if !reflect.DeepEqual(got, []string{"Express"}) {
		t.Fatalf("Values = %v", got)
	}
}
