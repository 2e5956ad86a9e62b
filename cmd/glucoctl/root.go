// glucoctl is the operator CLI: run the advice engine offline, inspect stored
// assessments, and print the effective threshold table.
//
// Usage:
//
//	glucoctl assess clinical --glucose 130 --bmi 22 --bp 70 --age 30 --class 0 --prob 10
//	glucoctl assess lifestyle --high-bp --bmi 22 --class 0 --probs 80,15,5
//	glucoctl records clinical --db diabetes_records.db --limit 5
//	glucoctl stats --db diabetes_records.db
//	glucoctl thresholds --thresholds thresholds.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skufu/GlucoRisk/internal/store"
	"github.com/Skufu/GlucoRisk/internal/thresholds"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	driver         string
	dsn            string
	thresholdsFile string
	markdown       bool
}

var rootCmd = &cobra.Command{
	Use:   "glucoctl",
	Short: "Operator tools for the diabetes risk assessment service",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.driver, "driver", "sqlite", "Database driver (sqlite or postgres)")
	f.StringVar(&rootFlags.dsn, "db", "diabetes_records.db", "Database path or connection URL")
	f.StringVar(&rootFlags.thresholdsFile, "thresholds", "", "YAML threshold overrides")
	f.BoolVar(&rootFlags.markdown, "markdown", false, "Render tables as Markdown")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadThresholds() (thresholds.Thresholds, error) {
	if rootFlags.thresholdsFile == "" {
		return thresholds.Default(), nil
	}
	return thresholds.Load(rootFlags.thresholdsFile)
}

func openStore() (*store.Store, error) {
	s, err := store.Open(rootFlags.driver, rootFlags.dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}
