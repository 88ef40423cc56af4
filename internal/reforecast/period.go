// Package reforecast recomputes the remaining monthly KPI targets a plant
// needs to still meet its annual budget, per format and consolidated.
package reforecast

import "github.com/theirongolddev/rfcst/internal/model"

// Split partitions the calendar around the reforecast month.
type Split struct {
	Month  int
	YTD    []int
	Future []int
}

// SplitAt returns YTD = [0..k] and Future = [k+1..11]. k is clamped to the
// calendar.
func SplitAt(k int) Split {
	if k < 0 {
		k = 0
	}
	if k >= model.MonthsPerYear {
		k = model.MonthsPerYear - 1
	}

	s := Split{
		Month:  k,
		YTD:    make([]int, 0, k+1),
		Future: make([]int, 0, model.MonthsPerYear-k-1),
	}
	for m := 0; m < model.MonthsPerYear; m++ {
		if m <= k {
			s.YTD = append(s.YTD, m)
		} else {
			s.Future = append(s.Future, m)
		}
	}
	return s
}

// IsFuture reports whether month m is after the reforecast month.
func (s Split) IsFuture(m int) bool {
	return m > s.Month
}
