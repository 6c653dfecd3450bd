// Package emissions derives per-record CO2 totals and carbon cost per value.
package emissions

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"greenroute/internal/quality"
	"greenroute/internal/schema"
)

// ErrMissingInputs is returned when a record reaches Derive without a
// distance or CO2 factor. Imputation must run first.
var ErrMissingInputs = errors.New("emissions: distance or co2 factor missing; impute first")

// maxListedOrders caps the order ids named in the undefined-metric warning.
const maxListedOrders = 5

// TotalCO2 returns distanceKM * co2KgPerKM.
func TotalCO2(distanceKM, co2KgPerKM float64) float64 { return distanceKM * co2KgPerKM }

// CCPV returns totalCO2Kg / orderValue, undefined (Valid false) unless the
// order value is present and positive.
func CCPV(totalCO2Kg float64, orderValue sql.NullFloat64) sql.NullFloat64 {
	if !orderValue.Valid || orderValue.Float64 <= 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: totalCO2Kg / orderValue.Float64, Valid: true}
}

// Derive returns a copy of recs with TotalCO2Kg and CCPV set. Values are not
// rounded. Records whose CCPV is undefined are summarized in a single
// UndefinedMetric warning. It fails with ErrMissingInputs, naming the first
// offending order, if any record still lacks a distance or CO2 factor.
func Derive(recs []schema.MergedRecord) ([]schema.MergedRecord, []quality.Warning, error) {
	out := make([]schema.MergedRecord, len(recs))
	var undefined []string
	for i, r := range recs {
		if !r.DistanceKM.Valid || !r.CO2KgPerKM.Valid {
			return nil, nil, fmt.Errorf("order %q (row %d): %w", r.OrderID, i, ErrMissingInputs)
		}
		r.TotalCO2Kg = TotalCO2(r.DistanceKM.Float64, r.CO2KgPerKM.Float64)
		r.CCPV = CCPV(r.TotalCO2Kg, r.OrderValueUSD)
		if !r.CCPV.Valid {
			undefined = append(undefined, r.OrderID)
		}
		out[i] = r
	}

	if len(undefined) == 0 {
		return out, nil, nil
	}
	listed := undefined
	if len(listed) > maxListedOrders {
		listed = listed[:maxListedOrders]
	}
	msg := "ccpv undefined for zero, negative or missing order value; orders " + strings.Join(listed, ", ")
	if n := len(undefined) - len(listed); n > 0 {
		msg += fmt.Sprintf(" and %d more", n)
	}
	return out, []quality.Warning{{
		Kind:    quality.UndefinedMetric,
		Source:  string(schema.Orders),
		Column:  schema.ColOrderValueUSD,
		Message: msg,
		Count:   len(undefined),
	}}, nil
}
