// Package impute fills missing distance and CO2 factor values with the mean
// of the values present in the merged set.
package impute

import (
	"database/sql"
	"fmt"
	"math"

	"greenroute/internal/quality"
	"greenroute/internal/schema"
)

// Column describes one imputed field.
type Column struct {
	Name string
	// Source is the table the column originates from, for warnings.
	Source schema.Source
	get    func(*schema.MergedRecord) *sql.NullFloat64
	flag   func(*schema.MergedRecord) *bool
}

// Columns are the fields Impute fills, in the order they are processed.
var Columns = []Column{
	{
		Name:   schema.ColDistanceKM,
		Source: schema.Routes,
		get:    func(m *schema.MergedRecord) *sql.NullFloat64 { return &m.DistanceKM },
		flag:   func(m *schema.MergedRecord) *bool { return &m.DistanceImputed },
	},
	{
		Name:   schema.ColCO2KgPerKM,
		Source: schema.Vehicles,
		get:    func(m *schema.MergedRecord) *sql.NullFloat64 { return &m.CO2KgPerKM },
		flag:   func(m *schema.MergedRecord) *bool { return &m.CO2FactorImputed },
	},
}

// Stat summarizes one column's imputation.
type Stat struct {
	Column   string  `json:"column"`
	Present  int     `json:"present"`
	Imputed  int     `json:"imputed"`
	Mean     float64 `json:"mean"`
	Degraded bool    `json:"degraded"`
}

// Impute returns a copy of recs where every missing DistanceKM and
// CO2KgPerKM holds the arithmetic mean of that column's present values, and
// the record is flagged as imputed. A column with no present value at all is
// filled with 0 and reported as ImputationDegraded. Impute is idempotent:
// running it on its own output changes nothing and reports nothing.
func Impute(recs []schema.MergedRecord) ([]schema.MergedRecord, []quality.Warning) {
	out, _, ws := ImputeStats(recs)
	return out, ws
}

// present reports whether v holds a usable value. Non-finite values count
// as missing.
func present(v sql.NullFloat64) bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}

// ImputeStats is Impute plus per-column statistics.
func ImputeStats(recs []schema.MergedRecord) ([]schema.MergedRecord, []Stat, []quality.Warning) {
	out := make([]schema.MergedRecord, len(recs))
	copy(out, recs)

	var (
		stats    []Stat
		warnings []quality.Warning
	)
	for _, col := range Columns {
		st := Stat{Column: col.Name}
		var sum float64
		for i := range out {
			if v := col.get(&out[i]); present(*v) {
				sum += v.Float64
				st.Present++
			}
		}
		st.Imputed = len(out) - st.Present
		if st.Present > 0 {
			st.Mean = sum / float64(st.Present)
		}
		stats = append(stats, st)
		if st.Imputed == 0 {
			continue
		}

		for i := range out {
			if v := col.get(&out[i]); !present(*v) {
				*v = sql.NullFloat64{Float64: st.Mean, Valid: true}
				*col.flag(&out[i]) = true
			}
		}

		if st.Present == 0 {
			stats[len(stats)-1].Degraded = true
			warnings = append(warnings, quality.Warning{
				Kind:    quality.ImputationDegraded,
				Source:  string(col.Source),
				Column:  col.Name,
				Message: "no values present to average; substituted 0",
				Count:   st.Imputed,
			})
			continue
		}
		warnings = append(warnings, quality.Warning{
			Kind:    quality.ValueImputed,
			Source:  string(col.Source),
			Column:  col.Name,
			Message: fmt.Sprintf("missing values replaced by mean %g of %d present", st.Mean, st.Present),
			Count:   st.Imputed,
		})
	}
	return out, stats, warnings
}
