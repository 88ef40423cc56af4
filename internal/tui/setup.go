package tui

import (
	"fmt"

	"github.com/theirongolddev/rfcst/internal/model"

	"github.com/charmbracelet/huh"
)

// setupValues receives the picker answers. The form holds pointers into it,
// so App keeps it behind a pointer across value copies.
type setupValues struct {
	PlantID string
	Month   int
}

func newSetupForm(plants []model.Plant, vals *setupValues) *huh.Form {
	plantOpts := make([]huh.Option[string], 0, len(plants))
	for _, p := range plants {
		label := fmt.Sprintf("%-6s %s", p.ID, p.Kind)
		if p.Fuel != model.FuelNone {
			label += " · " + string(p.Fuel)
		}
		plantOpts = append(plantOpts, huh.NewOption(label, p.ID))
	}

	monthOpts := make([]huh.Option[int], 0, model.MonthsPerYear)
	for i, m := range model.Months {
		monthOpts = append(monthOpts, huh.NewOption(m, i))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Plant").
				Description("Which plant to reforecast").
				Options(plantOpts...).
				Height(8).
				Value(&vals.PlantID),
			huh.NewSelect[int]().
				Title("Reforecast month").
				Description("Last month with realized figures").
				Options(monthOpts...).
				Height(6).
				Value(&vals.Month),
		),
	).WithShowHelp(true)
}
