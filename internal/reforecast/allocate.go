package reforecast

import (
	"math"

	"github.com/theirongolddev/rfcst/internal/model"
)

// BlockTolerance is the absolute slack under which a YTD realization counts
// as having consumed the whole annual budget.
const BlockTolerance = 1e-9

// budget holds the YTD and full-year absolute quantities for one pair.
type budget struct {
	realized     float64
	total        float64
	futureVolume float64
}

func measure(unit model.UnitKind, vol model.Series, coef model.Coefficients, split Split) budget {
	var b budget
	for _, m := range split.YTD {
		b.realized += unit.ToAbs(coef.Monthly[m], vol[m])
	}
	b.total = unit.ToAbs(coef.Annual, vol.Sum(nil))
	b.futureVolume = vol.Sum(split.Future)

	b.realized = model.Finite(b.realized)
	b.total = model.Finite(b.total)
	b.futureVolume = model.Finite(b.futureVolume)
	return b
}

func (b budget) blocked() bool {
	if b.total <= 0 {
		return false
	}
	return b.realized > b.total || math.Abs(b.realized-b.total) <= BlockTolerance
}

func (b budget) remaining() float64 {
	return math.Max(b.total-b.realized, 0)
}

// Allocate runs the engine for one KPI of one format. The result never
// carries NaN or Inf.
func Allocate(kpi model.KPI, vol model.Series, coef model.Coefficients, split Split) model.Allocation {
	b := measure(kpi.Unit, vol, coef, split)

	out := model.Allocation{
		KPI:          kpi.Name,
		RealizedYTD:  b.realized,
		TotalBudget:  b.total,
		FutureVolume: b.futureVolume,
	}

	if b.blocked() {
		out.Blocked = true
		return out
	}

	remaining := b.remaining()
	out.RemainingBudget = remaining
	if b.futureVolume <= 0 || remaining <= 0 {
		return out
	}

	weights := plannedWeights(kpi.Unit, vol, coef.Monthly, split.Future, b.futureVolume)
	for _, m := range split.Future {
		out.MonthlyFutureRate[m] = kpi.Unit.FromAbs(weights[m]*remaining, vol[m])
	}
	out.RequiredAnnualRate = kpi.Unit.FromAbs(remaining, b.futureVolume)
	return out
}

// plannedWeights spreads the remaining budget in proportion to the format's
// own planned consumption, or to volume when the plan carries no weight.
func plannedWeights(unit model.UnitKind, vol, rates model.Series, future []int, futureVolume float64) model.Series {
	var estimated model.Series
	var total float64
	for _, m := range future {
		estimated[m] = unit.ToAbs(rates[m], vol[m])
		total += estimated[m]
	}

	var w model.Series
	if total > 0 && !math.IsInf(total, 0) {
		for _, m := range future {
			w[m] = model.Finite(estimated[m] / total)
		}
		return w
	}

	if futureVolume <= 0 {
		return w
	}
	for _, m := range future {
		w[m] = model.Finite(vol[m] / futureVolume)
	}
	return w
}
