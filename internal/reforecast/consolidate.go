package reforecast

import (
	"math"

	"github.com/theirongolddev/rfcst/internal/model"
)

// Consolidate builds the plant-wide ("General") view from per-format
// results. results[f].KPIs must follow plant.KPIs order.
//
// A single format is mirrored as-is. With several formats a KPI blocked in
// any of them is suppressed; otherwise budgets are re-summed across formats
// and the monthly figures are the volume-weighted mix of each format's
// displayed (post-override) targets.
func Consolidate(plant model.Plant, inputs []model.FormatInputs, results []model.FormatResult, split Split) ([]model.Consolidated, []model.Notice) {
	out := make([]model.Consolidated, len(plant.KPIs))
	if len(results) == 1 {
		for i, d := range results[0].KPIs {
			out[i] = mirror(d, results[0].Format)
		}
		return out, nil
	}

	var notices []model.Notice
	for i, kpi := range plant.KPIs {
		c := model.Consolidated{KPI: kpi.Name}

		var valid []int
		for f := range results {
			if results[f].KPIs[i].Blocked {
				c.BlockedFormats = append(c.BlockedFormats, results[f].Format)
				continue
			}
			valid = append(valid, f)
		}

		if len(valid) == 0 || len(c.BlockedFormats) > 0 {
			c.Suppressed = true
			out[i] = c
			notices = append(notices, model.Notice{
				Kind:    model.NoticeSuppressed,
				KPI:     kpi.Name,
				Formats: c.BlockedFormats,
			})
			continue
		}

		out[i] = consolidateKPI(c, kpi, inputs, results, i, valid, split)
	}
	return out, notices
}

func mirror(d model.Displayed, format string) model.Consolidated {
	c := model.Consolidated{
		KPI:                 d.KPI,
		Suppressed:          d.Blocked,
		RealizedYTD:         d.RealizedYTD,
		TotalBudget:         d.TotalBudget,
		RemainingBudget:     d.RemainingBudget,
		FutureVolume:        d.FutureVolume,
		RequiredAnnualRate:  d.RequiredAnnualRate,
		DisplayedAnnualRate: d.DisplayedAnnualRate,
		Monthly:             d.Monthly,
	}
	if d.Blocked {
		c.BlockedFormats = []string{format}
	}
	return c
}

func consolidateKPI(c model.Consolidated, kpi model.KPI, inputs []model.FormatInputs, results []model.FormatResult, i int, valid []int, split Split) model.Consolidated {
	var absByMonth, volByMonth model.Series
	for _, f := range valid {
		vol := inputs[f].Volume
		b := measure(kpi.Unit, vol, inputs[f].Coefficient(kpi.Name), split)
		c.RealizedYTD += b.realized
		c.TotalBudget += b.total
		c.FutureVolume += b.futureVolume

		monthly := results[f].KPIs[i].Monthly
		for _, m := range split.Future {
			absByMonth[m] += kpi.Unit.ToAbs(monthly[m], vol[m])
			volByMonth[m] += vol[m]
		}
	}

	c.RemainingBudget = math.Max(c.TotalBudget-c.RealizedYTD, 0)
	if c.FutureVolume > 0 {
		c.RequiredAnnualRate = kpi.Unit.FromAbs(c.RemainingBudget, c.FutureVolume)
	}
	c.DisplayedAnnualRate = c.RequiredAnnualRate

	for _, m := range split.Future {
		c.Monthly[m] = kpi.Unit.FromAbs(model.Finite(absByMonth[m]), volByMonth[m])
	}
	return c
}
