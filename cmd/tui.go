package cmd

import (
	"fmt"

	"github.com/theirongolddev/rfcst/internal/config"
	"github.com/theirongolddev/rfcst/internal/logging"
	"github.com/theirongolddev/rfcst/internal/tui"
	"github.com/theirongolddev/rfcst/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [PLANT]",
	Short: "Launch the interactive reforecast viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	month, err := monthFlag()
	if err != nil {
		return err
	}

	plantID := ""
	if plant, err := e.plant(args); err == nil {
		plantID = plant.ID
	} else if len(args) > 0 || flagPlant != "" {
		return err
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	app := tui.NewApp(tui.Options{
		Store:        st,
		Catalog:      e.catalog,
		PlantID:      plantID,
		Month:        month,
		DefaultMonth: e.defaultMonth(),
		Formats:      e.cfg.General.DefaultFormats,
		Workers:      flagWorkers,
		// Notices are shown in the viewer; log lines would tear the screen.
		Log:    logging.Discard(),
		OnPick: rememberPlant,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// rememberPlant stores the picked plant as the default for the next run.
func rememberPlant(id string) {
	cfg, err := config.Load()
	if err != nil {
		return
	}
	cfg.General.LastPlant = id
	_ = config.Save(cfg)
}
