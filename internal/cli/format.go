// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"

	"github.com/charmbracelet/lipgloss"
)

// Placeholders for rows without computed figures.
const (
	CellBlocked    = "blocked"
	CellSuppressed = "n/a"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatVolume formats a production volume (thousand units) as a grouped
// whole number.
func FormatVolume(v float64) string {
	return FormatNumber(int64(math.Round(model.Finite(v))))
}

// ViewTable turns a display view into a CLI table: KPI, FY, one column per
// future month and a trend sparkline.
func ViewTable(v present.View) Table {
	headers := append([]string{"KPI", "FY"}, v.Columns()...)
	headers = append(headers, "Trend")

	t := Table{
		Title:   v.Title,
		Headers: headers,
		Styles:  cellStyles,
	}
	for _, r := range v.Rows {
		row := []string{rowLabel(r)}
		switch {
		case r.Suppressed:
			row = append(row, fill(CellSuppressed, len(v.FutureMonths)+1)...)
			row = append(row, "")
		case r.Blocked:
			row = append(row, fill(CellBlocked, len(v.FutureMonths)+1)...)
			row = append(row, "")
		default:
			row = append(row, present.FormatValue(r.Unit, r.Annual))
			row = append(row, r.Cells(v.FutureMonths)...)
			row = append(row, RenderSparkline(futureValues(r, v.FutureMonths)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

var cellStyles = map[string]lipgloss.Style{
	CellBlocked:    errStyle,
	CellSuppressed: warnStyle,
}

func rowLabel(r present.Row) string {
	switch {
	case r.KeptPlan && r.Infeasible:
		return r.Label + " *†"
	case r.KeptPlan:
		return r.Label + " *"
	case r.Infeasible:
		return r.Label + " †"
	default:
		return r.Label
	}
}

func fill(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func futureValues(r present.Row, future []int) []float64 {
	vals := make([]float64, len(future))
	for i, m := range future {
		vals[i] = r.Monthly[m]
	}
	return vals
}

// RenderDocument renders a whole report: title, the consolidated table, one
// table per format and the grouped notices.
func RenderDocument(doc present.Document) string {
	var b strings.Builder

	b.WriteString(RenderTitle(fmt.Sprintf("Reforecast %s @ %s", doc.PlantID, doc.Month)))
	b.WriteString("\n")
	if len(doc.Future) == 0 {
		b.WriteString(dimStyle.Render("  No future months: the reforecast month is the last of the year."))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, v := range doc.Tabs() {
		b.WriteString(RenderTable(ViewTable(v)))
		b.WriteString("\n")
	}

	b.WriteString(RenderNotices(doc.Notices))
	return b.String()
}

// RenderNotices renders grouped notices, severe ones first.
func RenderNotices(groups []present.NoticeGroup) string {
	if len(groups) == 0 {
		return okStyle.Render("  No notices.") + "\n"
	}

	sorted := make([]present.NoticeGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severe() && !sorted[j].Severe()
	})

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("Notices"))
	b.WriteString("\n")
	for _, g := range sorted {
		style := infoStyle
		if g.Severe() {
			style = warnStyle
		}
		b.WriteString("  ")
		b.WriteString(style.Render("• " + g.Message()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("  * plan kept   † FY cap applied"))
	b.WriteString("\n")
	return b.String()
}

// InputsTables renders the stored inputs of one format: volume, coefficients
// with FY, and overrides.
func InputsTables(plant model.Plant, f model.FormatInputs) []Table {
	months := model.Months[:]

	vol := Table{
		Title:   f.Name + " · volume",
		Headers: append([]string{"Series"}, months...),
	}
	row := []string{"Volume"}
	for _, v := range f.Volume {
		row = append(row, FormatVolume(v))
	}
	vol.Rows = append(vol.Rows, row)

	coef := Table{
		Title:   f.Name + " · coefficients",
		Headers: append(append([]string{"KPI"}, months...), "FY"),
	}
	over := Table{
		Title:   f.Name + " · overrides",
		Headers: append([]string{"KPI"}, months...),
	}
	for _, k := range plant.KPIs {
		c := f.Coefficient(k.Name)
		crow := []string{k.Name}
		for _, v := range c.Monthly {
			crow = append(crow, present.FormatValue(k.Unit, v))
		}
		crow = append(crow, present.FormatValue(k.Unit, c.Annual))
		coef.Rows = append(coef.Rows, crow)

		o := f.Override(k.Name)
		orow := []string{k.Name}
		for _, v := range o {
			orow = append(orow, present.FormatValue(k.Unit, v))
		}
		over.Rows = append(over.Rows, orow)
	}

	return []Table{vol, coef, over}
}
