package impute

import (
	"database/sql"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"greenroute/internal/quality"
	"greenroute/internal/records"
	"greenroute/internal/schema"
)

func num(f float64) sql.NullFloat64 { return sql.NullFloat64{Float64: f, Valid: true} }

func rec(id string, dist, co2 sql.NullFloat64) schema.MergedRecord {
	return schema.MergedRecord{Order: schema.Order{OrderID: id}, DistanceKM: dist, CO2KgPerKM: co2}
}

// TestImpute_FillsMean verifies the distance mean of 100 and 300 fills the
// missing row and nothing else changes.
func TestImpute_FillsMean(t *testing.T) {
	t.Parallel()

	in := []schema.MergedRecord{
		rec("O1", num(100), num(0.5)),
		rec("O2", sql.NullFloat64{}, num(0.5)),
		rec("O3", num(300), num(0.5)),
	}
	out, warnings := Impute(in)

	if out[1].DistanceKM != num(200) || !out[1].DistanceImputed {
		t.Fatalf("O2 distance = %+v imputed=%v, want 200 imputed", out[1].DistanceKM, out[1].DistanceImputed)
	}
	if out[0].DistanceImputed || out[2].DistanceImputed {
		t.Errorf("present values must not be flagged")
	}
	if in[1].DistanceKM.Valid {
		t.Errorf("input was mutated")
	}
	if len(warnings) != 1 || warnings[0].Kind != quality.ValueImputed || warnings[0].Count != 1 {
		t.Fatalf("warnings = %+v", warnings)
	}
}

// TestImpute_NoValuesDegrades verifies a column with no present values is
// zero-filled with an ImputationDegraded warning.
func TestImpute_NoValuesDegrades(t *testing.T) {
	t.Parallel()

	in := []schema.MergedRecord{
		rec("O1", num(10), sql.NullFloat64{}),
		rec("O2", num(20), sql.NullFloat64{}),
	}
	out, stats, warnings := ImputeStats(in)
	for i, r := range out {
		if r.CO2KgPerKM != num(0) || !r.CO2FactorImputed {
			t.Errorf("row %d co2 = %+v imputed=%v", i, r.CO2KgPerKM, r.CO2FactorImputed)
		}
	}
	want := []Stat{
		{Column: schema.ColDistanceKM, Present: 2, Mean: 15},
		{Column: schema.ColCO2KgPerKM, Imputed: 2, Degraded: true},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if len(warnings) != 1 || warnings[0].Kind != quality.ImputationDegraded || warnings[0].Column != schema.ColCO2KgPerKM {
		t.Fatalf("warnings = %+v", warnings)
	}
}

// TestImpute_Idempotent verifies a second pass is a no-op.
func TestImpute_Idempotent(t *testing.T) {
	t.Parallel()

	in := []schema.MergedRecord{
		rec("O1", num(100), sql.NullFloat64{}),
		rec("O2", sql.NullFloat64{}, num(0.3)),
		rec("O3", sql.NullFloat64{}, sql.NullFloat64{}),
	}
	once, _ := Impute(in)
	twice, warnings := Impute(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed records (-once +twice):\n%s", diff)
	}
	if len(warnings) != 0 {
		t.Errorf("second pass warnings = %+v", warnings)
	}
	for i, r := range twice {
		if !r.DistanceKM.Valid || !r.CO2KgPerKM.Valid {
			t.Errorf("row %d still missing a value", i)
		}
	}
}

// TestImpute_Empty verifies an empty set produces no warnings.
func TestImpute_Empty(t *testing.T) {
	t.Parallel()

	out, warnings := Impute(nil)
	if len(out) != 0 || len(warnings) != 0 {
		t.Fatalf("out=%v warnings=%v", out, warnings)
	}
}

// TestImpute_NonFiniteValuesDoNotPoisonMean verifies a NaN distance never
// reaches the mean: straight from decoding it is missing, and a non-finite
// value built by hand is imputed like a missing one.
func TestImpute_NonFiniteValuesDoNotPoisonMean(t *testing.T) {
	t.Parallel()

	routes, _ := schema.DecodeRoutes(records.Table{
		Columns: []string{schema.ColRouteID, schema.ColDistanceKM},
		Rows: []records.Record{
			{schema.ColRouteID: "R1", schema.ColDistanceKM: "NaN"},
			{schema.ColRouteID: "R2", schema.ColDistanceKM: "100"},
		},
	})
	in := []schema.MergedRecord{
		rec("O1", routes[0].DistanceKM, num(0.5)),
		rec("O2", routes[1].DistanceKM, num(0.5)),
		rec("O3", sql.NullFloat64{}, num(0.5)),
		rec("O4", num(math.Inf(1)), num(0.5)),
	}
	out, stats, _ := ImputeStats(in)

	if stats[0].Mean != 100 || stats[0].Present != 1 || stats[0].Imputed != 3 {
		t.Fatalf("distance stat = %+v, want mean 100 from 1 present", stats[0])
	}
	for _, i := range []int{0, 2, 3} {
		if out[i].DistanceKM != num(100) || !out[i].DistanceImputed {
			t.Errorf("%s distance = %+v imputed=%v, want 100 imputed", out[i].OrderID, out[i].DistanceKM, out[i].DistanceImputed)
		}
	}
	if out[1].DistanceImputed {
		t.Errorf("O2 must keep its own value")
	}
}
