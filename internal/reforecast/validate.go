package reforecast

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/theirongolddev/rfcst/internal/model"
)

// ValidationError lists every problem found in a plant's input tables.
type ValidationError struct {
	PlantID  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid inputs for %s: %s", e.PlantID, strings.Join(e.Problems, "; "))
}

// Validate checks the inputs a reforecast is about to consume. It is meant to
// run before Run; Run itself tolerates bad numbers by zeroing them.
// Table labels may use any spelling Plant.Lookup accepts, but every label
// must name exactly one catalogue KPI.
func Validate(plant model.Plant, in model.PlantInputs) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if in.ReforecastMonth < 0 || in.ReforecastMonth >= model.MonthsPerYear {
		add("reforecast month %d outside 0-11", in.ReforecastMonth)
	}
	if len(in.Formats) == 0 {
		add("no formats")
	}

	seen := make(map[string]bool, len(in.Formats))
	for _, f := range in.Formats {
		name := f.Name
		if strings.TrimSpace(name) == "" {
			add("format with empty name")
		}
		if seen[name] {
			add("duplicate format name %q", name)
		}
		seen[name] = true

		for m, v := range f.Volume {
			switch {
			case !isFinite(v):
				add("%s: volume for %s is not a number", name, model.Months[m])
			case v < 0:
				add("%s: production volume cannot be negative (%s = %g)", name, model.Months[m], v)
			}
		}

		f = f.Canonical(plant)
		for _, label := range labels(f.Coefficients) {
			checkLabel(plant, name, "coefficients", label, add)
		}
		for _, label := range labels(f.Overrides) {
			checkLabel(plant, name, "overrides", label, add)
		}

		for _, kpi := range plant.KPIs {
			coef := f.Coefficient(kpi.Name)
			if !isFinite(coef.Annual) {
				add("%s: FY missing for %s (use 0 when there is no target)", name, kpi.Name)
			}
			for m, v := range coef.Monthly {
				if !isFinite(v) {
					add("%s: %s for %s is not a number", name, kpi.Name, model.Months[m])
				}
			}
			for m, v := range f.Override(kpi.Name) {
				if !isFinite(v) {
					add("%s: %s plan for %s is not a number", name, kpi.Name, model.Months[m])
				}
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{PlantID: plant.ID, Problems: problems}
	}
	return nil
}

// checkLabel reports a label of a canonicalized table that names no KPI, or
// that names one already present under its catalogue name.
func checkLabel(plant model.Plant, format, table, label string, add func(string, ...any)) {
	kpi, ok := plant.Lookup(label)
	switch {
	case !ok:
		add("%s: unknown KPI %q in %s", format, label, table)
	case kpi.Name != label:
		add("%s: %q repeats %s in %s", format, label, kpi.Name, table)
	}
}

func labels[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
