package reforecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/rfcst/internal/model"
)

const june = 5

var (
	spoilage = model.KPI{Name: "Spoilage (%)", Unit: model.PercentageRate}
	metal    = model.KPI{Name: "Metal Can (kg/000)"}
)

func flat(v float64) model.Series {
	var s model.Series
	for i := range s {
		s[i] = v
	}
	return s
}

// rates builds a coefficient row with one value for YTD months and another
// for the rest.
func rates(ytd, future float64, k int) model.Series {
	var s model.Series
	for m := range s {
		if m <= k {
			s[m] = ytd
		} else {
			s[m] = future
		}
	}
	return s
}

func TestSplitAt_Partitions(t *testing.T) {
	for k := 0; k < model.MonthsPerYear; k++ {
		s := SplitAt(k)
		require.Len(t, s.YTD, k+1, "k=%d", k)
		require.Len(t, s.Future, model.MonthsPerYear-k-1, "k=%d", k)
		assert.Equal(t, 0, s.YTD[0])
		assert.Equal(t, k, s.YTD[len(s.YTD)-1])
		for _, m := range s.Future {
			assert.True(t, s.IsFuture(m))
		}
	}
}

func TestSplitAt_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 0, SplitAt(-3).Month)
	s := SplitAt(40)
	assert.Equal(t, 11, s.Month)
	assert.Empty(t, s.Future)
}

func TestAllocate_SteadyState(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(2.0, 2.0, june), Annual: 2.0}

	a := Allocate(spoilage, flat(100), coef, SplitAt(june))

	assert.False(t, a.Blocked)
	assert.InDelta(t, 12.0, a.RealizedYTD, 1e-9)
	assert.InDelta(t, 24.0, a.TotalBudget, 1e-9)
	assert.InDelta(t, 2.0, a.RequiredAnnualRate, 1e-9)
	for m := june + 1; m < model.MonthsPerYear; m++ {
		assert.InDelta(t, 2.0, a.MonthlyFutureRate[m], 1e-9, "month %d", m)
	}
	for m := 0; m <= june; m++ {
		assert.Zero(t, a.MonthlyFutureRate[m])
	}
}

func TestAllocate_OverspendTightensTarget(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(3.0, 2.0, june), Annual: 2.0}

	a := Allocate(spoilage, flat(100), coef, SplitAt(june))

	assert.False(t, a.Blocked)
	assert.InDelta(t, 18.0, a.RealizedYTD, 1e-9)
	assert.InDelta(t, 24.0, a.TotalBudget, 1e-9)
	assert.InDelta(t, 6.0, a.RemainingBudget, 1e-9)
	assert.InDelta(t, 600.0, a.FutureVolume, 1e-9)
	assert.InDelta(t, 1.0, a.RequiredAnnualRate, 1e-9)
	for m := june + 1; m < model.MonthsPerYear; m++ {
		assert.InDelta(t, 1.0, a.MonthlyFutureRate[m], 1e-9)
	}

	d := ApplyOverrides(a, coef.Annual, model.Series{}, SplitAt(june))
	assert.False(t, d.Infeasible, "1.0 <= FY 2.0 must not trigger the FY cap")
	assert.InDelta(t, 1.0, d.DisplayedAnnualRate, 1e-9)
}

func TestAllocate_BlocksWhenYTDExceedsBudget(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(5.0, 2.0, june), Annual: 2.0}

	a := Allocate(spoilage, flat(100), coef, SplitAt(june))

	assert.True(t, a.Blocked)
	assert.InDelta(t, 30.0, a.RealizedYTD, 1e-9)
	assert.InDelta(t, 24.0, a.TotalBudget, 1e-9)
	assert.Zero(t, a.RequiredAnnualRate)
	assert.Equal(t, model.Series{}, a.MonthlyFutureRate)
}

func TestAllocate_BlocksAtExactBudget(t *testing.T) {
	// Whole year already realized at exactly the FY rate.
	coef := model.Coefficients{Monthly: flat(2.0), Annual: 2.0}

	a := Allocate(metal, flat(100), coef, SplitAt(11))

	assert.True(t, a.Blocked)
}

func TestAllocate_ZeroBudgetNeverBlocks(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(4.0, 0, june), Annual: 0}

	a := Allocate(metal, flat(100), coef, SplitAt(june))

	assert.False(t, a.Blocked)
	assert.Zero(t, a.RemainingBudget)
	assert.Zero(t, a.RequiredAnnualRate)
}

func TestAllocate_ZeroFutureVolumeFloor(t *testing.T) {
	vol := flat(100)
	for m := june + 1; m < model.MonthsPerYear; m++ {
		vol[m] = 0
	}
	coef := model.Coefficients{Monthly: rates(1.0, 1.0, june), Annual: 3.0}

	a := Allocate(metal, vol, coef, SplitAt(june))

	assert.False(t, a.Blocked)
	assert.Greater(t, a.RemainingBudget, 0.0)
	assert.Zero(t, a.RequiredAnnualRate)
	assert.Equal(t, model.Series{}, a.MonthlyFutureRate)
}

func TestAllocate_DecemberHasNoFuture(t *testing.T) {
	coef := model.Coefficients{Monthly: flat(1.0), Annual: 2.0}

	a := Allocate(metal, flat(100), coef, SplitAt(11))

	assert.False(t, a.Blocked)
	assert.Zero(t, a.RequiredAnnualRate)
	assert.Equal(t, model.Series{}, a.MonthlyFutureRate)
}

func TestAllocate_FollowsPlannedShape(t *testing.T) {
	vol := flat(100)
	coef := model.Coefficients{Monthly: rates(1.0, 0, june), Annual: 2.0}
	coef.Monthly[6] = 3.0
	coef.Monthly[7] = 1.0

	a := Allocate(metal, vol, coef, SplitAt(june))

	// remaining = 2400 - 600 = 1800, split 3:1 over Jul/Aug.
	assert.InDelta(t, 13.5, a.MonthlyFutureRate[6], 1e-9)
	assert.InDelta(t, 4.5, a.MonthlyFutureRate[7], 1e-9)
	assert.Zero(t, a.MonthlyFutureRate[8])
	assert.InDelta(t, 3.0, a.RequiredAnnualRate, 1e-9)
}

func TestAllocate_VolumeFallbackWithoutPlan(t *testing.T) {
	vol := flat(100)
	vol[6] = 300
	coef := model.Coefficients{Monthly: rates(1.0, 0, june), Annual: 2.0}

	a := Allocate(metal, vol, coef, SplitAt(june))

	// Weighted by volume, every future month lands on the same rate.
	for m := june + 1; m < model.MonthsPerYear; m++ {
		assert.InDelta(t, a.RequiredAnnualRate, a.MonthlyFutureRate[m], 1e-9, "month %d", m)
	}
}

func TestAllocate_Conservation(t *testing.T) {
	vol := model.Series{120, 80, 95, 110, 130, 90, 70, 140, 60, 100, 115, 85}
	coef := model.Coefficients{
		Monthly: model.Series{1.9, 2.2, 2.0, 1.7, 2.4, 2.1, 1.5, 2.6, 0.9, 1.8, 2.3, 1.1},
		Annual:  2.4,
	}

	for _, kpi := range []model.KPI{spoilage, metal} {
		for k := 0; k < 11; k++ {
			split := SplitAt(k)
			a := Allocate(kpi, vol, coef, split)
			if a.Blocked || a.FutureVolume <= 0 {
				continue
			}
			var allocated float64
			for _, m := range split.Future {
				allocated += kpi.Unit.ToAbs(a.MonthlyFutureRate[m], vol[m])
			}
			assert.InDelta(t, a.RemainingBudget, allocated, 1e-6, "%s k=%d", kpi.Name, k)
		}
	}
}

func TestAllocate_NeverEmitsNaN(t *testing.T) {
	vol := flat(100)
	vol[8] = math.Inf(1)
	coef := model.Coefficients{Monthly: rates(1.0, math.NaN(), june), Annual: math.NaN()}

	a := Allocate(metal, vol, coef, SplitAt(june))

	values := append([]float64{a.RealizedYTD, a.TotalBudget, a.RemainingBudget, a.FutureVolume, a.RequiredAnnualRate}, a.MonthlyFutureRate[:]...)
	for _, v := range values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite value %v", v)
	}
}

func TestUnitKind_FromAbsGuardsZeroVolume(t *testing.T) {
	assert.Zero(t, model.PercentageRate.FromAbs(5, 0))
	assert.Zero(t, model.AbsoluteRate.FromAbs(5, 0))
	assert.InDelta(t, 5.0, model.PercentageRate.FromAbs(5, 100), 1e-12)
	assert.InDelta(t, 0.05, model.AbsoluteRate.FromAbs(5, 100), 1e-12)
}
