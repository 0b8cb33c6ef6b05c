package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/vitals/internal/modules/scenarios"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the built-in scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(outputFormat); err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, scenarios.List())
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
