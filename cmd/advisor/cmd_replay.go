package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/vitals/internal/clients/history"
	"github.com/aristath/vitals/internal/di"
	"github.com/aristath/vitals/internal/validation"
)

const (
	dateLayout          = "2006-01-02"
	defaultReplayWindow = 60 * 24 * time.Hour
)

var (
	replaySymbols     []string
	replayStart       string
	replayEnd         string
	replayHistoryFile string
	replayCycles      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay history and score decision stability",
	Long: `Replay daily candles through the decision engine and report how calm
its output stays: inaction rate, churn and a stability score.

History comes from --history-file, or from the S3 archive configured with
HISTORY_S3_BUCKET (cached in the local cache database).

Examples:
  advisor replay --history-file candles.yaml
  advisor replay --symbols SPY,QQQ --start 2025-01-02 --end 2025-06-30 --format text`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringSliceVar(&replaySymbols, "symbols", nil, "Symbols to replay (default: every symbol in --history-file)")
	replayCmd.Flags().StringVar(&replayStart, "start", "", "First day, YYYY-MM-DD (default: 60 days before --end)")
	replayCmd.Flags().StringVar(&replayEnd, "end", "", "Last day, YYYY-MM-DD (default: today)")
	replayCmd.Flags().StringVar(&replayHistoryFile, "history-file", "", "YAML file of candles keyed by symbol")
	replayCmd.Flags().BoolVar(&replayCycles, "cycles", false, "Include the per-day trace in json and msgpack output")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if err := validateFormat(outputFormat); err != nil {
		return err
	}

	start, end, err := replayRange(replayStart, replayEnd, time.Now().UTC())
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	symbols := replaySymbols
	var source validation.HistorySource

	if replayHistoryFile != "" {
		fileSource, err := history.LoadFileSource(replayHistoryFile)
		if err != nil {
			return err
		}
		if len(symbols) == 0 {
			symbols = fileSource.Symbols()
		}
		source = fileSource
	} else {
		container, err := di.Wire(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer container.Close()

		if container.HistorySource == nil {
			return errors.New("no history source: pass --history-file or set HISTORY_S3_BUCKET")
		}
		source = container.HistorySource
	}

	result, err := validation.NewReplayer(source, log).Run(ctx, symbols, start, end)
	if err != nil {
		return err
	}
	if !replayCycles {
		result.Cycles = nil
	}

	if err := writeOutput(cmd.OutOrStdout(), outputFormat, result); err != nil {
		return fmt.Errorf("failed to write replay result: %w", err)
	}
	return nil
}

// replayRange parses the date flags, filling the defaults relative to now
func replayRange(startFlag, endFlag string, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if endFlag != "" {
		parsed, err := time.Parse(dateLayout, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end %q: %w", endFlag, err)
		}
		end = parsed
	}

	start := end.Add(-defaultReplayWindow)
	if startFlag != "" {
		parsed, err := time.Parse(dateLayout, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start %q: %w", startFlag, err)
		}
		start = parsed
	}

	return start, end, nil
}
