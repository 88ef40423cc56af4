// Package present turns reforecast reports into display tables: fuel unit
// conversion, peak/off-peak electricity merge, fixed row order and number
// formatting. Nothing here feeds back into the engine.
package present

import (
	"sort"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"

	"github.com/shopspring/decimal"
)

// Fuel display factors: kWh per kg of LPG and per m³ of natural gas.
const (
	LPGFactor        = 12.78
	NaturalGasFactor = 10.76
)

// GeneralTab is the title of the consolidated view.
const GeneralTab = "General"

// Row is one KPI line of a display table.
type Row struct {
	KPI        string
	Label      string
	Unit       model.UnitKind
	Annual     float64
	Monthly    model.Series
	Blocked    bool
	Suppressed bool
	KeptPlan   bool
	Infeasible bool

	order int
}

// View is a display table: one annual row per KPI plus the future months.
type View struct {
	Title        string
	FutureMonths []int
	Rows         []Row
}

// Columns returns the month labels of the future months.
func (v View) Columns() []string {
	cols := make([]string, len(v.FutureMonths))
	for i, m := range v.FutureMonths {
		cols[i] = model.Months[m]
	}
	return cols
}

// Document is a whole report ready to render.
type Document struct {
	PlantID string
	Month   string
	YTD     []string
	Future  []string
	General View
	Formats []View
	Notices []NoticeGroup
}

// Build adapts a report for display.
func Build(plant model.Plant, r model.Report) Document {
	doc := Document{
		PlantID: r.PlantID,
		Month:   model.Months[r.ReforecastMonth],
		YTD:     labels(r.YTDMonths),
		Future:  labels(r.FutureMonths),
		General: GeneralView(plant, r.General, r.FutureMonths),
		Notices: GroupNotices(r.Notices),
	}
	for _, fr := range r.Formats {
		doc.Formats = append(doc.Formats, FormatView(plant, fr, r.FutureMonths))
	}
	return doc
}

// Tabs returns the consolidated view followed by every format view.
func (d Document) Tabs() []View {
	return append([]View{d.General}, d.Formats...)
}

// FormatView builds the display table of one format.
func FormatView(plant model.Plant, fr model.FormatResult, future []int) View {
	rows := make([]Row, 0, len(fr.KPIs))
	for i, d := range fr.KPIs {
		kpi := plant.KPI(d.KPI)
		rows = append(rows, Row{
			KPI:        d.KPI,
			Label:      d.KPI,
			Unit:       kpi.Unit,
			Annual:     d.DisplayedAnnualRate,
			Monthly:    d.Monthly,
			Blocked:    d.Blocked,
			KeptPlan:   d.KeptPlan,
			Infeasible: d.Infeasible,
			order:      i,
		})
	}
	return View{Title: fr.Format, FutureMonths: future, Rows: Adapt(plant, rows)}
}

// GeneralView builds the consolidated display table.
func GeneralView(plant model.Plant, general []model.Consolidated, future []int) View {
	rows := make([]Row, 0, len(general))
	for i, c := range general {
		kpi := plant.KPI(c.KPI)
		rows = append(rows, Row{
			KPI:        c.KPI,
			Label:      c.KPI,
			Unit:       kpi.Unit,
			Annual:     c.DisplayedAnnualRate,
			Monthly:    c.Monthly,
			Suppressed: c.Suppressed,
			order:      i,
		})
	}
	return View{Title: GeneralTab, FutureMonths: future, Rows: Adapt(plant, rows)}
}

// Adapt applies the cosmetic relabelling to rows: fuel conversion, the
// electricity merge and the plant's display order.
func Adapt(plant model.Plant, rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	mergedAt := -1

	for _, row := range rows {
		kpi := plant.KPI(row.KPI)
		switch kpi.Role {
		case model.RoleFuel:
			out = append(out, convertFuel(row, plant.Fuel))
		case model.RoleElectricityOffPeak, model.RoleElectricityPeak:
			if mergedAt < 0 {
				mergedAt = len(out)
				row.Label = combinedLabel(row.KPI)
				out = append(out, row)
				continue
			}
			out[mergedAt] = mergeRows(out[mergedAt], row)
		default:
			out = append(out, row)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// FuelFactor returns the display multiplier for a fuel type.
func FuelFactor(fuel model.FuelType) float64 {
	switch fuel {
	case model.FuelLPG:
		return LPGFactor
	case model.FuelNaturalGas:
		return NaturalGasFactor
	default:
		return 1
	}
}

func convertFuel(row Row, fuel model.FuelType) Row {
	factor := FuelFactor(fuel)
	if factor == 1 {
		return row
	}
	row.Annual *= factor
	for m := range row.Monthly {
		row.Monthly[m] *= factor
	}
	row.Label = "Gas (kwh/000)"
	return row
}

func mergeRows(a, b Row) Row {
	a.Annual += b.Annual
	for m := range a.Monthly {
		a.Monthly[m] += b.Monthly[m]
	}
	a.Blocked = a.Blocked || b.Blocked
	a.Suppressed = a.Suppressed || b.Suppressed
	a.KeptPlan = a.KeptPlan || b.KeptPlan
	a.Infeasible = a.Infeasible || b.Infeasible
	if b.order < a.order {
		a.order = b.order
	}
	return a
}

func combinedLabel(name string) string {
	if i := strings.LastIndex(name, " - "); i > 0 {
		return name[:i]
	}
	return name
}

// FormatValue renders a rate: two decimals and a percent sign for percentage
// KPIs, three decimals otherwise. Halves round away from zero.
func FormatValue(unit model.UnitKind, v float64) string {
	d := decimal.NewFromFloat(model.Finite(v))
	if unit == model.PercentageRate {
		return d.StringFixed(2) + "%"
	}
	return d.StringFixed(3)
}

// Cells returns the row's formatted future-month values.
func (r Row) Cells(future []int) []string {
	cells := make([]string, len(future))
	for i, m := range future {
		cells[i] = FormatValue(r.Unit, r.Monthly[m])
	}
	return cells
}

func labels(months []int) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = model.Months[m]
	}
	return out
}
