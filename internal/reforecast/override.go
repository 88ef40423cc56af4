package reforecast

import "github.com/theirongolddev/rfcst/internal/model"

// ApplyOverrides turns a raw allocation into the displayed figures by
// running the two plan rules in order:
//
//  1. kept plan: targets already at or below the plan in every future month
//     show the plan instead;
//  2. infeasible: a required rate above the FY target shows the plan and
//     the FY target instead.
//
// Each rule reads the raw allocation; the second may overwrite the first.
// Blocked allocations pass through untouched.
func ApplyOverrides(a model.Allocation, fy float64, plan model.Series, split Split) model.Displayed {
	d := model.Displayed{
		Allocation:          a,
		DisplayedAnnualRate: a.RequiredAnnualRate,
		Monthly:             a.MonthlyFutureRate,
	}
	if a.Blocked || len(split.Future) == 0 {
		return d
	}

	d = applyKeptPlan(d, plan, split)
	d = applyInfeasible(d, fy, plan, split)
	return d
}

func applyKeptPlan(d model.Displayed, plan model.Series, split Split) model.Displayed {
	for _, m := range split.Future {
		if d.MonthlyFutureRate[m] > plan[m] {
			return d
		}
	}
	d.Monthly = withFuture(d.Monthly, plan, split)
	d.KeptPlan = true
	return d
}

func applyInfeasible(d model.Displayed, fy float64, plan model.Series, split Split) model.Displayed {
	if !(d.RequiredAnnualRate > fy) {
		return d
	}
	d.Monthly = withFuture(d.Monthly, plan, split)
	d.DisplayedAnnualRate = fy
	d.Infeasible = true
	return d
}

// withFuture returns base with its future months replaced by src's.
func withFuture(base, src model.Series, split Split) model.Series {
	for _, m := range split.Future {
		base[m] = model.Finite(src[m])
	}
	return base
}
