package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"greenroute/internal/pipeline"
)

// maxSeriesRows bounds the series tables in the text report.
const maxSeriesRows = 10

func writeReport(w io.Writer, format string, snap pipeline.Snapshot, res pipeline.ExportResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			pipeline.Snapshot
			LowConfidence bool                  `json:"low_confidence"`
			Export        pipeline.ExportResult `json:"export"`
		}{snap, snap.LowConfidence(), res})
	}
	_, err := io.WriteString(w, renderText(w, snap, res))
	return err
}

type styles struct {
	title, section, label, warn, muted lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		section: r.NewStyle().Bold(true).Underline(true),
		label:   r.NewStyle().Width(18),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		muted:   r.NewStyle().Faint(true),
	}
}

// renderText lays out the report for a terminal. Colors are dropped when w
// is not a TTY.
func renderText(w io.Writer, snap pipeline.Snapshot, res pipeline.ExportResult) string {
	st := newStyles(w)
	var b strings.Builder
	line := func(format string, a ...any) { fmt.Fprintf(&b, format+"\n", a...) }
	kv := func(k, v string) { line("  %s%s", st.label.Render(k), v) }

	line("%s %s", st.title.Render("greenroute"), st.muted.Render(fmt.Sprintf("job=%s run=%s", snap.Job, snap.RunID)))
	line("")

	line(st.section.Render("Sources"))
	for _, s := range snap.Sources {
		status := fmt.Sprintf("%s rows", humanize.Comma(int64(s.Rows)))
		if !s.Available {
			status = st.warn.Render("unavailable")
		} else if s.Skipped > 0 {
			status += st.warn.Render(fmt.Sprintf(", %d malformed skipped", s.Skipped))
		}
		line("  %-12s %-32s %s", s.Source, s.Location, status)
	}
	line("")

	sum := snap.Summary
	line(st.section.Render(fmt.Sprintf("Summary (%s of %s records)",
		humanize.Comma(int64(sum.Records)), humanize.Comma(int64(len(snap.Records))))))
	kv("Total CO2", fmt.Sprintf("%s t", humanize.CommafWithDigits(sum.TotalCO2Tonnes, 3)))
	kv("Avg CCPV", optional(sum.AvgCCPV, func(v float64) string { return fmt.Sprintf("%.6f kg CO2 per USD", v) }))
	kv("Routes analysed", humanize.Comma(int64(sum.RoutesAnalysed)))
	kv("Orders", humanize.Comma(int64(sum.Orders)))
	kv("Total cost", humanize.CommafWithDigits(sum.TotalCost.InexactFloat64(), 2))
	kv("On-time rate", optional(sum.OnTimeRate, func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }))
	if sum.DistanceImputed > 0 || sum.CO2Imputed > 0 {
		kv("Imputed", fmt.Sprintf("distance %d, CO2 factor %d", sum.DistanceImputed, sum.CO2Imputed))
	}
	line("")

	line(st.section.Render("Priority 1: high-emission routes"))
	if len(snap.HighEmissionRoutes) == 0 {
		line("  %s", st.muted.Render("no routes"))
	}
	for i, r := range snap.HighEmissionRoutes {
		line("  %d. %-28s %12s kg  %s", i+1, r.Key,
			humanize.CommafWithDigits(r.TotalCO2Kg, 2), st.muted.Render(plural(r.Orders, "order")))
	}
	line("")

	line(st.section.Render("Priority 2: inefficient assets"))
	if len(snap.InefficientAssets) == 0 {
		line("  %s", st.muted.Render("no vehicle type with a defined CCPV"))
	}
	for i, a := range snap.InefficientAssets {
		note := plural(a.Records, "record")
		if a.Undefined > 0 {
			note += fmt.Sprintf(", %d undefined", a.Undefined)
		}
		line("  %d. %-20s %.6f kg CO2 per USD  %s", i+1, a.VehicleType, a.MeanCCPV, st.muted.Render(note))
	}
	line("")

	if len(snap.Fleet) > 0 {
		line(st.section.Render("Fleet profile"))
		for _, p := range first(snap.Fleet) {
			line("  %-20s ccpv %-12s age %-8s %s kg", p.VehicleType,
				optional(p.MeanCCPV, func(v float64) string { return fmt.Sprintf("%.6f", v) }),
				optional(p.MeanAgeYears, func(v float64) string { return fmt.Sprintf("%.1f", v) }),
				humanize.CommafWithDigits(p.TotalCO2Kg, 2))
		}
		line("")
	}

	if len(snap.Origins) > 0 {
		line(st.section.Render("CO2 by origin"))
		for _, o := range first(snap.Origins) {
			line("  %-20s %12s kg  %5.1f%%", o.Label, humanize.CommafWithDigits(o.TotalCO2Kg, 2), o.Fraction*100)
		}
		line("")
	}

	if len(snap.Daily) > 0 {
		line(st.section.Render("Daily trend"))
		for _, d := range first(snap.Daily) {
			line("  %s %12s kg  %s", d.Day.Format("2006-01-02"),
				humanize.CommafWithDigits(d.TotalCO2Kg, 2), st.muted.Render(plural(d.Orders, "order")))
		}
		if n := len(snap.Daily) - maxSeriesRows; n > 0 {
			line("  %s", st.muted.Render(fmt.Sprintf("... %d more days", n)))
		}
		line("")
	}

	title := fmt.Sprintf("Data quality (%s)", plural(snap.Report.Len(), "warning"))
	if snap.LowConfidence() {
		title += " " + st.warn.Render("LOW CONFIDENCE")
	}
	line(st.section.Render(title))
	for _, w := range snap.Report.Warnings {
		line("  %s", w.String())
	}
	line("")

	if res.CSV != nil || res.StoredRows > 0 {
		line(st.section.Render("Export"))
		if res.CSV != nil {
			line("  %s  %s, %s, xxh3 %s", res.CSVPath, plural(res.CSV.Rows, "row"),
				humanize.Bytes(uint64(res.CSV.Bytes)), res.CSV.String())
		}
		if res.StoredRows > 0 {
			line("  database  %s", plural(int(res.StoredRows), "row"))
		}
	}
	return b.String()
}

// first returns at most maxSeriesRows leading entries of s.
func first[T any](s []T) []T {
	if len(s) > maxSeriesRows {
		return s[:maxSeriesRows]
	}
	return s
}

func optional(v *float64, format func(float64) string) string {
	if v == nil {
		return "n/a"
	}
	return format(*v)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
