package schema

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"greenroute/internal/quality"
	"greenroute/internal/records"
)

func TestParseMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "$1,250.50", want: "1250.5"},
		{in: "INR 300", want: "300"},
		{in: "₹ 12,000", want: "12000"},
		{in: "0", want: "0"},
		{in: "-15.25", want: "-15.25"},
		{in: "", wantErr: true},
		{in: "n/a", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMoney(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMoney(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMoney(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "1,250.5", want: 1250.5},
		{in: " 42 ", want: 42},
		{in: "$7", want: 7},
		{in: "-0.25", want: -0.25},
		{in: "NaN", wantErr: true},
		{in: "nan", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "-Infinity", wantErr: true},
		{in: "+inf", wantErr: true},
		{in: "1e400", wantErr: true},
		{in: "far", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseNumber(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

// TestDecodeRoutes_NonFiniteDistance verifies NaN and infinite distances
// decode as missing and are reported as invalid values.
func TestDecodeRoutes_NonFiniteDistance(t *testing.T) {
	t.Parallel()

	tbl := records.Table{
		Columns: []string{ColRouteID, ColDistanceKM},
		Rows: []records.Record{
			{ColRouteID: "R1", ColDistanceKM: "NaN"},
			{ColRouteID: "R2", ColDistanceKM: "100"},
			{ColRouteID: "R3", ColDistanceKM: "Inf"},
		},
	}
	got, warns := DecodeRoutes(tbl)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].DistanceKM.Valid || got[2].DistanceKM.Valid {
		t.Errorf("non-finite distances decoded as present: R1=%+v R3=%+v", got[0].DistanceKM, got[2].DistanceKM)
	}
	if !got[1].DistanceKM.Valid || got[1].DistanceKM.Float64 != 100 {
		t.Errorf("R2 distance = %+v", got[1].DistanceKM)
	}
	if len(warns) != 1 || warns[0].Kind != quality.InvalidValue || warns[0].Column != ColDistanceKM || warns[0].Count != 2 {
		t.Fatalf("warnings = %+v", warns)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-07", "03/07/2024", "07.03.2024", "2024-03-07T00:00:00Z"} {
		got, ok := ParseDate(in)
		if !ok || !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseDate("yesterday"); ok {
		t.Errorf("ParseDate(yesterday) ok = true")
	}
}

// TestDecodeOrders_MissingAndInvalidValues verifies that empty cells decode
// as missing and that unparseable cells are missing plus reported once per
// column with a count.
func TestDecodeOrders_MissingAndInvalidValues(t *testing.T) {
	t.Parallel()

	tbl := records.Table{
		Columns: []string{ColOrderID, ColOrderDate, ColOrderValueUSD, ColVehicleID},
		Rows: []records.Record{
			{ColOrderID: "ORD1", ColOrderDate: "2024-01-02", ColOrderValueUSD: "$100", ColVehicleID: "V1"},
			{ColOrderID: "ORD2", ColOrderDate: nil, ColOrderValueUSD: nil},
			{ColOrderID: "ORD3", ColOrderDate: "soon", ColOrderValueUSD: "lots"},
			{ColOrderID: "ORD4", ColOrderValueUSD: "n/a"},
		},
	}
	got, warns := DecodeOrders(tbl)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if !got[0].OrderValueUSD.Valid || got[0].OrderValueUSD.Float64 != 100 {
		t.Errorf("ORD1 value = %+v", got[0].OrderValueUSD)
	}
	if got[0].Date.IsZero() || got[0].VehicleID != "V1" {
		t.Errorf("ORD1 = %+v", got[0])
	}
	for i := 1; i < 4; i++ {
		if got[i].OrderValueUSD.Valid {
			t.Errorf("%s value should be missing: %+v", got[i].OrderID, got[i].OrderValueUSD)
		}
	}
	if got[2].OrderDate != "soon" || !got[2].Date.IsZero() {
		t.Errorf("ORD3 date = %q / %v", got[2].OrderDate, got[2].Date)
	}

	if len(warns) != 2 {
		t.Fatalf("warnings = %+v, want 2", warns)
	}
	if warns[0].Kind != quality.InvalidValue || warns[0].Column != ColOrderValueUSD || warns[0].Count != 2 {
		t.Errorf("warns[0] = %+v", warns[0])
	}
	if warns[1].Column != ColOrderDate || warns[1].Count != 1 || warns[1].Source != "orders" {
		t.Errorf("warns[1] = %+v", warns[1])
	}
}

func TestDecodePerformance_OnTimeDerivation(t *testing.T) {
	t.Parallel()

	tbl := records.Table{Rows: []records.Record{
		{ColOrderID: "A", ColOnTime: "yes"},
		{ColOrderID: "B", ColDeliveryStatus: "Slightly-Delayed"},
		{ColOrderID: "C", ColDeliveryStatus: "On-Time"},
		{ColOrderID: "D", ColPromisedDays: "3", ColActualDays: "5"},
		{ColOrderID: "E", ColPromisedDays: "3", ColActualDays: "2"},
		{ColOrderID: "F"},
	}}
	got, warns := DecodePerformance(tbl)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %+v", warns)
	}

	type want struct {
		valid, onTime bool
	}
	wants := []want{{true, true}, {true, false}, {true, true}, {true, false}, {true, true}, {false, false}}
	for i, w := range wants {
		if got[i].OnTime.Valid != w.valid || got[i].OnTime.Bool != w.onTime {
			t.Errorf("%s OnTime = %+v, want %+v", got[i].OrderID, got[i].OnTime, w)
		}
	}
	if !got[3].DelayDays.Valid || got[3].DelayDays.Float64 != 2 {
		t.Errorf("D DelayDays = %+v, want 2", got[3].DelayDays)
	}
	if !got[4].DelayDays.Valid || got[4].DelayDays.Float64 != 0 {
		t.Errorf("E DelayDays = %+v, want 0", got[4].DelayDays)
	}
}

func TestDecodeCosts_TotalSumsComponents(t *testing.T) {
	t.Parallel()

	tbl := records.Table{Rows: []records.Record{
		{ColOrderID: "A", ColFuelCost: "100.10", ColLaborCost: "50", ColOtherOverhead: "0.2"},
		{ColOrderID: "B", ColFuelCost: "bad"},
	}}
	got, warns := DecodeCosts(tbl)
	if !got[0].Total().Equal(decimal.RequireFromString("150.3")) {
		t.Errorf("A total = %s, want 150.3", got[0].Total())
	}
	if !got[1].Total().IsZero() {
		t.Errorf("B total = %s, want 0", got[1].Total())
	}
	if len(warns) != 1 || warns[0].Column != ColFuelCost {
		t.Errorf("warnings = %+v", warns)
	}
}

func TestMergedRecordLane(t *testing.T) {
	t.Parallel()

	m := MergedRecord{Order: Order{Origin: "Pune"}, Route: Route{Origin: "X", Destination: "Delhi"}}
	if got := m.Lane(); got != "Pune -> Delhi" {
		t.Fatalf("Lane() = %q", got)
	}
	if got := (MergedRecord{}).Lane(); got != "" {
		t.Fatalf("empty Lane() = %q", got)
	}
}
