package reforecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/rfcst/internal/model"
)

// underPlan is an absolute KPI that realized 1.0 against an FY of 2.0, so
// the remaining half-year needs 3.0.
func underPlan(t *testing.T) (model.Allocation, model.Coefficients) {
	t.Helper()
	coef := model.Coefficients{Monthly: rates(1.0, 2.0, june), Annual: 2.0}
	a := Allocate(metal, flat(100), coef, SplitAt(june))
	if a.Blocked {
		t.Fatal("fixture unexpectedly blocked")
	}
	return a, coef
}

func TestApplyOverrides_NoRuleFires(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(3.0, 2.0, june), Annual: 2.0}
	a := Allocate(spoilage, flat(100), coef, SplitAt(june))

	d := ApplyOverrides(a, coef.Annual, model.Series{}, SplitAt(june))

	assert.False(t, d.KeptPlan)
	assert.False(t, d.Infeasible)
	assert.Equal(t, a.MonthlyFutureRate, d.Monthly)
	assert.Equal(t, a.RequiredAnnualRate, d.DisplayedAnnualRate)
}

func TestApplyOverrides_KeepsPlanWhenAlreadyBetter(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(3.0, 2.0, june), Annual: 2.0}
	a := Allocate(spoilage, flat(100), coef, SplitAt(june))
	plan := flat(1.5)

	d := ApplyOverrides(a, coef.Annual, plan, SplitAt(june))

	assert.True(t, d.KeptPlan)
	assert.False(t, d.Infeasible)
	for m := june + 1; m < model.MonthsPerYear; m++ {
		assert.Equal(t, 1.5, d.Monthly[m])
	}
	for m := 0; m <= june; m++ {
		assert.Zero(t, d.Monthly[m], "YTD months are never overwritten")
	}
	assert.InDelta(t, 1.0, d.DisplayedAnnualRate, 1e-9, "kept plan leaves the annual figure alone")
	assert.InDelta(t, 1.0, d.MonthlyFutureRate[june+1], 1e-9, "raw allocation is preserved")
}

func TestApplyOverrides_KeptPlanNeedsEveryMonth(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(3.0, 2.0, june), Annual: 2.0}
	a := Allocate(spoilage, flat(100), coef, SplitAt(june))
	plan := flat(1.5)
	plan[11] = 0.5

	d := ApplyOverrides(a, coef.Annual, plan, SplitAt(june))

	assert.False(t, d.KeptPlan)
	assert.Equal(t, a.MonthlyFutureRate, d.Monthly)
}

func TestApplyOverrides_InfeasibleShowsPlanAndFY(t *testing.T) {
	a, coef := underPlan(t)
	assert.InDelta(t, 3.0, a.RequiredAnnualRate, 1e-9)

	d := ApplyOverrides(a, coef.Annual, flat(1.8), SplitAt(june))

	assert.False(t, d.KeptPlan)
	assert.True(t, d.Infeasible)
	assert.Equal(t, 2.0, d.DisplayedAnnualRate)
	assert.InDelta(t, 3.0, d.RequiredAnnualRate, 1e-9, "true required rate is kept for consumers")
	for m := june + 1; m < model.MonthsPerYear; m++ {
		assert.Equal(t, 1.8, d.Monthly[m])
	}
}

func TestApplyOverrides_BothRules(t *testing.T) {
	a, coef := underPlan(t)

	d := ApplyOverrides(a, coef.Annual, flat(3.5), SplitAt(june))

	assert.True(t, d.KeptPlan)
	assert.True(t, d.Infeasible)
	assert.Equal(t, 3.5, d.Monthly[june+1])
	assert.Equal(t, 2.0, d.DisplayedAnnualRate)
}

func TestApplyOverrides_NoFutureMonths(t *testing.T) {
	coef := model.Coefficients{Monthly: flat(1.0), Annual: 2.0}
	split := SplitAt(11)
	a := Allocate(metal, flat(100), coef, split)

	d := ApplyOverrides(a, coef.Annual, flat(9), split)

	assert.False(t, d.KeptPlan)
	assert.False(t, d.Infeasible)
	assert.Equal(t, model.Series{}, d.Monthly)
}

func TestApplyOverrides_BlockedPassesThrough(t *testing.T) {
	coef := model.Coefficients{Monthly: rates(5.0, 2.0, june), Annual: 2.0}
	a := Allocate(spoilage, flat(100), coef, SplitAt(june))

	d := ApplyOverrides(a, coef.Annual, flat(1.0), SplitAt(june))

	assert.True(t, d.Blocked)
	assert.False(t, d.KeptPlan)
	assert.Equal(t, model.Series{}, d.Monthly)
	assert.Zero(t, d.DisplayedAnnualRate)
}
