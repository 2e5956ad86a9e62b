package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Print the effective threshold table as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		th, err := loadThresholds()
		if err != nil {
			return err
		}
		raw, err := th.Marshal()
		if err != nil {
			return fmt.Errorf("encode thresholds: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}
