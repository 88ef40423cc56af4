package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/rfcst/internal/cli"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/reforecast"
	"github.com/theirongolddev/rfcst/internal/sheet"
	"github.com/theirongolddev/rfcst/internal/store"

	"github.com/spf13/cobra"
)

var flagTemplateFormats int

var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Show, import and export the stored input tables of a plant",
}

var inputsShowCmd = &cobra.Command{
	Use:   "show [PLANT]",
	Short: "Print the stored volume, coefficient and override tables",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInputsShow,
}

var inputsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Validate a YAML or xlsx file and save it as the plant's inputs",
	Args:  cobra.ExactArgs(1),
	RunE:  runInputsImport,
}

var inputsExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the plant's stored inputs to a YAML or xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInputsExport,
}

var inputsTemplateCmd = &cobra.Command{
	Use:   "template FILE",
	Short: "Write a blank input file for the plant",
	Args:  cobra.ExactArgs(1),
	RunE:  runInputsTemplate,
}

var inputsMonthCmd = &cobra.Command{
	Use:   "month MONTH",
	Short: "Set the stored reforecast month (1-12 or a month name)",
	Args:  cobra.ExactArgs(1),
	RunE:  runInputsMonth,
}

var inputsDeleteCmd = &cobra.Command{
	Use:   "delete [PLANT]",
	Short: "Forget the stored inputs of a plant",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInputsDelete,
}

func init() {
	inputsTemplateCmd.Flags().IntVar(&flagTemplateFormats, "formats", 0, "Number of formats (defaults to config)")

	inputsCmd.AddCommand(inputsShowCmd, inputsImportCmd, inputsExportCmd, inputsTemplateCmd, inputsMonthCmd, inputsDeleteCmd)
	rootCmd.AddCommand(inputsCmd)
}

// withStore runs fn with the environment, the resolved plant and an open store.
func withStore(args []string, fn func(env, model.Plant, store.Store) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	plant, err := e.plant(args)
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(e, plant, st)
}

func runInputsShow(_ *cobra.Command, args []string) error {
	return withStore(args, func(e env, plant model.Plant, st store.Store) error {
		ctx := context.Background()
		in, err := st.Load(ctx, plant.ID)
		saved := err == nil
		if errors.Is(err, store.ErrNotFound) {
			in, err = store.LoadOrDefault(ctx, st, plant, e.defaultMonth(), e.cfg.General.DefaultFormats)
		}
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("%s inputs · reforecast @ %s", plant.ID, in.MonthLabel())))
		if !saved {
			fmt.Println("  Nothing saved yet; showing defaults.")
		}
		fmt.Println()
		for _, f := range in.Formats {
			for _, t := range cli.InputsTables(plant, f) {
				fmt.Print(cli.RenderTable(t))
				fmt.Println()
			}
		}
		return nil
	})
}

func runInputsImport(_ *cobra.Command, args []string) error {
	path := args[0]
	in, err := sheet.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var plantArgs []string
	if flagPlant == "" && in.PlantID != "" {
		plantArgs = []string{in.PlantID}
	}
	return withStore(plantArgs, func(e env, plant model.Plant, st store.Store) error {
		in.PlantID = plant.ID
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
		in = in.Canonical(plant)
		if err := st.Save(context.Background(), in); err != nil {
			return err
		}
		e.log.LogStoreOperation("import", plant.ID)
		if !flagQuiet {
			fmt.Printf("  Saved %d format(s) for %s, reforecast @ %s\n", len(in.Formats), plant.ID, in.MonthLabel())
		}
		return nil
	})
}

func runInputsExport(_ *cobra.Command, args []string) error {
	path := args[0]
	return withStore(nil, func(e env, plant model.Plant, st store.Store) error {
		in, err := store.LoadOrDefault(context.Background(), st, plant, e.defaultMonth(), e.cfg.General.DefaultFormats)
		if err != nil {
			return err
		}
		if err := sheet.WriteFile(path, plant, in); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if !flagQuiet {
			fmt.Printf("  Wrote %s\n", path)
		}
		return nil
	})
}

func runInputsTemplate(_ *cobra.Command, args []string) error {
	path := args[0]
	e, err := loadEnv()
	if err != nil {
		return err
	}
	plant, err := e.plant(nil)
	if err != nil {
		return err
	}
	month, err := monthFlag()
	if err != nil {
		return err
	}
	if month < 0 {
		month = e.defaultMonth()
	}
	formats := flagTemplateFormats
	if formats < 1 {
		formats = e.cfg.General.DefaultFormats
	}

	in := model.DefaultInputs(plant, formats)
	in.ReforecastMonth = month
	if err := sheet.WriteFile(path, plant, in); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Wrote %s template for %s (%d formats)\n", path, plant.ID, formats)
	}
	return nil
}

func runInputsMonth(_ *cobra.Command, args []string) error {
	month, err := model.MonthIndex(args[0])
	if err != nil {
		return err
	}
	return withStore(nil, func(e env, plant model.Plant, st store.Store) error {
		ctx := context.Background()
		in, err := store.LoadOrDefault(ctx, st, plant, e.defaultMonth(), e.cfg.General.DefaultFormats)
		if err != nil {
			return err
		}
		in.ReforecastMonth = month
		if err := st.Save(ctx, in); err != nil {
			return err
		}
		e.log.LogStoreOperation("set-month", plant.ID)
		if !flagQuiet {
			fmt.Printf("  %s reforecast month set to %s\n", plant.ID, in.MonthLabel())
		}
		return nil
	})
}

func runInputsDelete(_ *cobra.Command, args []string) error {
	return withStore(args, func(e env, plant model.Plant, st store.Store) error {
		if err := st.Delete(context.Background(), plant.ID); err != nil {
			return err
		}
		e.log.LogStoreOperation("delete", plant.ID)
		if !flagQuiet {
			fmt.Printf("  Forgot stored inputs of %s\n", plant.ID)
		}
		return nil
	})
}
