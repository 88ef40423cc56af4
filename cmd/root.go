// Package cmd implements the rfcst CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/rfcst/internal/config"
	"github.com/theirongolddev/rfcst/internal/logging"
	"github.com/theirongolddev/rfcst/internal/model"
	"github.com/theirongolddev/rfcst/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagPlant   string
	flagMonth   string
	flagStore   string
	flagWorkers int
	flagDebug   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "rfcst [PLANT]",
	Short: "Plant KPI reforecast",
	Long: "Recompute the monthly KPI targets a plant must hit for the rest of the\n" +
		"fiscal year to land on its full-year budget, given what was realized so far.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCalc,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagPlant, "plant", "p", "", "Plant ID (defaults to the last plant picked in setup)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", "", "Reforecast month: 1-12 or a month name (defaults to the stored month)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "SQLite store path (overrides config and RFCST_STORE)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Formats computed in parallel (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
}

// env is what every command needs: config, logger, catalogue.
type env struct {
	cfg     config.Config
	log     *logging.Logger
	catalog config.Catalog
}

func loadEnv() (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}
	opts := logging.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON, Debug: flagDebug}
	if flagQuiet && !flagDebug {
		opts.Level = "error"
	}
	return env{
		cfg:     cfg,
		log:     logging.New(opts),
		catalog: config.NewCatalog(cfg),
	}, nil
}

func (e env) openStore() (*store.SQLite, error) {
	path := flagStore
	if path == "" {
		path = config.StorePath(e.cfg)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	e.log.Debug("Store opened", "path", path)
	return st, nil
}

// plant resolves the plant from a positional argument, --plant, or the
// configured last plant, in that order.
func (e env) plant(args []string) (model.Plant, error) {
	id := flagPlant
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		id = e.cfg.General.LastPlant
	}
	if strings.TrimSpace(id) == "" {
		return model.Plant{}, errors.New("no plant selected: pass --plant or run `rfcst setup`")
	}
	return e.catalog.Plant(id)
}

// monthFlag returns the --month override, or -1 when the flag is not set.
func monthFlag() (int, error) {
	if strings.TrimSpace(flagMonth) == "" {
		return -1, nil
	}
	return model.MonthIndex(flagMonth)
}

func (e env) defaultMonth() int {
	return config.DefaultMonthIndex(e.cfg)
}
