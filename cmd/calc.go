package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/rfcst/internal/cli"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/present"
	"github.com/theirongolddev/rfcst/internal/reforecast"
	"github.com/theirongolddev/rfcst/internal/sheet"
	"github.com/theirongolddev/rfcst/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagCalcJSON  bool
	flagCalcXLSX  string
	flagCalcInput string
)

var calcCmd = &cobra.Command{
	Use:   "calc [PLANT]",
	Short: "Compute the reforecast and print the result tables",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCalc,
}

func init() {
	for _, c := range []*cobra.Command{calcCmd, rootCmd} {
		c.Flags().BoolVar(&flagCalcJSON, "json", false, "Print the raw report as JSON")
		c.Flags().StringVar(&flagCalcXLSX, "xlsx", "", "Also write the result tables to this workbook")
		c.Flags().StringVarP(&flagCalcInput, "input", "i", "", "Read inputs from a YAML/xlsx file instead of the store (not saved)")
	}
	rootCmd.AddCommand(calcCmd)
}

func runCalc(_ *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	plant, in, err := e.calcInputs(args)
	if err != nil {
		return err
	}

	month, err := monthFlag()
	if err != nil {
		return err
	}
	if month >= 0 {
		in.ReforecastMonth = month
	}

	if err := reforecast.Validate(plant, in); err != nil {
		return err
	}
	report := reforecast.Run(plant, in, reforecast.Options{Logger: e.log, Workers: flagWorkers})
	doc := present.Build(plant, report)

	if flagCalcXLSX != "" {
		if err := writeReport(flagCalcXLSX, doc); err != nil {
			return fmt.Errorf("writing %s: %w", flagCalcXLSX, err)
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Wrote %s\n", flagCalcXLSX)
		}
	}

	if flagCalcJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println()
	fmt.Print(cli.RenderDocument(doc))
	return nil
}

// calcInputs loads the inputs to compute: from --input when given, else
// from the store, else defaults.
func (e env) calcInputs(args []string) (model.Plant, model.PlantInputs, error) {
	if flagCalcInput != "" {
		in, err := sheet.ReadFile(flagCalcInput)
		if err != nil {
			return model.Plant{}, in, fmt.Errorf("reading %s: %w", flagCalcInput, err)
		}
		if in.PlantID != "" && len(args) == 0 && flagPlant == "" {
			args = []string{in.PlantID}
		}
		plant, err := e.plant(args)
		if err != nil {
			return plant, in, err
		}
		in.PlantID = plant.ID
		return plant, in, nil
	}

	plant, err := e.plant(args)
	if err != nil {
		return plant, model.PlantInputs{}, err
	}
	st, err := e.openStore()
	if err != nil {
		return plant, model.PlantInputs{}, err
	}
	defer st.Close()

	in, err := store.LoadOrDefault(context.Background(), st, plant, e.defaultMonth(), e.cfg.General.DefaultFormats)
	return plant, in, err
}

func writeReport(path string, doc present.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = sheet.WriteReport(f, doc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
