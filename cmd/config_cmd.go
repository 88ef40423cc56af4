package cmd

import (
	"fmt"

	"github.com/theirongolddev/rfcst/internal/config"
	"github.com/theirongolddev/rfcst/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default month:   %s\n", model.Months[config.DefaultMonthIndex(cfg)])
	fmt.Printf("    Default formats: %d\n", cfg.General.DefaultFormats)
	fmt.Printf("    Store:           %s\n", config.StorePath(cfg))
	if cfg.General.LastPlant != "" {
		fmt.Printf("    Last plant:      %s\n", cfg.General.LastPlant)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Printf("    CORS origins: %v\n", cfg.Server.AllowedOrigins)
	}
	fmt.Println()

	fmt.Println("  [Logging]")
	fmt.Printf("    Level: %s  JSON: %v\n", cfg.Logging.Level, cfg.Logging.JSON)
	fmt.Println()

	if len(cfg.Plants) > 0 {
		fmt.Println("  [Plants]")
		for _, p := range config.Plants(cfg) {
			if _, ok := cfg.Plants[p.ID]; ok {
				fmt.Printf("    %-6s fuel: %s\n", p.ID, p.Fuel)
			}
		}
		fmt.Println()
	}

	fmt.Println("  Run `rfcst setup` to reconfigure.")
	return nil
}
