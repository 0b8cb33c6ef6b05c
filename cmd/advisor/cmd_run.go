package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/aristath/vitals/internal/di"
	"github.com/aristath/vitals/internal/modules/planning"
)

// defaultTrials is used when --seed is given without --trials or COUNTERFACTUAL_TRIALS
const defaultTrials = 100

var (
	runScenario string
	runSnapshot string
	runSeed     int64
	runTrials   int
	runPlan     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one decision cycle",
	Long: `Run one decision cycle on adapter data and print the report.

Examples:
  advisor run
  advisor run --scenario crash_reflex --format text
  advisor run --snapshot portfolio.yaml --plan
  advisor run --seed 42 --trials 500`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Scenario id to apply (see 'advisor scenarios')")
	runCmd.Flags().StringVar(&runSnapshot, "snapshot", "", "YAML snapshot to read inputs from (default: SNAPSHOT_PATH or the demo adapter)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for a reproducible counterfactual simulation")
	runCmd.Flags().IntVar(&runTrials, "trials", 0, "Counterfactual trials (default: COUNTERFACTUAL_TRIALS)")
	runCmd.Flags().BoolVar(&runPlan, "plan", false, "Print the execution plan instead of the full report")
}

func runCycle(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if runSnapshot != "" {
		cfg.SnapshotPath = runSnapshot
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	if cmd.Flags().Changed("seed") {
		trials := runTrials
		if trials <= 0 {
			trials = cfg.CounterfactualTrials
		}
		if trials <= 0 {
			trials = defaultTrials
		}
		container.DecisionService.EnableCounterfactual(rand.New(rand.NewSource(runSeed)), trials)
	}

	report, err := container.AdvisoryService.RunCycle(ctx, runScenario)
	if err != nil {
		return err
	}

	if runPlan {
		return writeOutput(cmd.OutOrStdout(), outputFormat, planOutput{
			CycleID: report.CycleID,
			Plan:    planning.PlanReport(report),
			Summary: planning.Summarize(report),
		})
	}

	if err := writeOutput(cmd.OutOrStdout(), outputFormat, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
