package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/rfcst/internal/config"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: default plant, month, formats, fuel and theme",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the existing config so unrelated sections survive.
	cfg, _ := config.Load()

	plantID := cfg.General.LastPlant
	month := config.DefaultMonthIndex(cfg)
	formats := strconv.Itoa(cfg.General.DefaultFormats)
	themeName := cfg.Appearance.Theme

	plantOpts := []huh.Option[string]{}
	for _, p := range config.Plants(cfg) {
		plantOpts = append(plantOpts, huh.NewOption(fmt.Sprintf("%-6s %s", p.ID, p.Kind), p.ID))
	}
	monthOpts := []huh.Option[int]{}
	for i, m := range model.Months {
		monthOpts = append(monthOpts, huh.NewOption(m, i))
	}
	themeOpts := []huh.Option[string]{}
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default plant").
				Options(plantOpts...).
				Height(8).
				Value(&plantID),
			huh.NewSelect[int]().
				Title("Default reforecast month").
				Description("Used for plants with nothing saved yet").
				Options(monthOpts...).
				Height(6).
				Value(&month),
			huh.NewInput().
				Title("Formats per new plant").
				Value(&formats).
				Validate(validateFormats),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	plant, err := config.LookupPlant(cfg, plantID)
	if err != nil {
		return err
	}
	if plant.Kind == model.KindCans {
		fuel := string(config.FuelFor(cfg, plant.ID))
		err := huh.NewSelect[string]().
			Title(plant.ID + " fuel").
			Description("Selects the kWh conversion of the gas KPI").
			Options(
				huh.NewOption("None (show raw units)", string(model.FuelNone)),
				huh.NewOption("LPG", string(model.FuelLPG)),
				huh.NewOption("Natural gas", string(model.FuelNaturalGas)),
			).
			Value(&fuel).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if cfg.Plants == nil {
			cfg.Plants = map[string]config.PlantConfig{}
		}
		cfg.Plants[plant.ID] = config.PlantConfig{Fuel: fuel}
	}

	n, _ := strconv.Atoi(strings.TrimSpace(formats))
	cfg.General.LastPlant = plant.ID
	cfg.General.DefaultMonth = model.Months[month]
	cfg.General.DefaultFormats = n
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `rfcst setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateFormats(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 20 {
		return errors.New("enter a number between 1 and 20")
	}
	return nil
}
