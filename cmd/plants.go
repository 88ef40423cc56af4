package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/theirongolddev/rfcst/internal/cli"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/store"

	"github.com/spf13/cobra"
)

var plantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "List catalogue plants and which ones have saved inputs",
	RunE:  runPlants,
}

func init() {
	rootCmd.AddCommand(plantsCmd)
}

func runPlants(_ *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	saved, err := st.List(context.Background())
	if err != nil {
		return err
	}
	byID := make(map[string]store.Summary, len(saved))
	for _, s := range saved {
		byID[s.PlantID] = s
	}

	t := cli.Table{
		Title:   "Plants",
		Headers: []string{"Plant", "Kind", "Fuel", "KPIs", "Month", "Formats", "Saved"},
	}
	for _, p := range e.catalog.Plants() {
		fuel := string(p.Fuel)
		if p.Fuel == model.FuelNone {
			fuel = "-"
		}
		row := []string{p.ID, string(p.Kind), fuel, strconv.Itoa(len(p.KPIs)), "-", "-", "-"}
		if s, ok := byID[p.ID]; ok {
			row[4] = model.Months[s.ReforecastMonth]
			row[5] = strconv.Itoa(s.Formats)
			row[6] = s.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		t.Rows = append(t.Rows, row)
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}
