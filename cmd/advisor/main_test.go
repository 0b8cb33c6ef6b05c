package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/vitals/internal/modules/scenarios"
	"github.com/aristath/vitals/internal/validation"
)

// execute runs the CLI with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")

	// flags are package state; reset them between runs
	outputFormat = formatJSON
	runScenario, runSnapshot, runPlan, runSeed, runTrials = "", "", false, 0, 0
	replaySymbols, replayStart, replayEnd, replayHistoryFile, replayCycles = nil, "", "", "", false
	t.Cleanup(func() {
		for _, cmd := range rootCmd.Commands() {
			cmd.Flags().Visit(func(f *pflag.Flag) { f.Changed = false })
		}
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScenariosCommand(t *testing.T) {
	out, err := execute(t, "scenarios")
	require.NoError(t, err)

	var list []scenarios.Scenario
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, len(scenarios.List()))

	out, err = execute(t, "scenarios", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "crash_reflex")
	assert.Contains(t, out, "BADGES")
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "--scenario", "crash_reflex")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "crash_reflex", report["scenario"])
	assert.NotEmpty(t, report["cycle_id"])

	out, err = execute(t, "run", "--plan")
	require.NoError(t, err)
	var plan planOutput
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.NotEmpty(t, plan.CycleID)

	out, err = execute(t, "run", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Posture:")
	assert.Contains(t, out, "TARGET")

	_, err = execute(t, "run", "--scenario", "moon_landing")
	assert.Error(t, err)

	_, err = execute(t, "run", "--format", "xml")
	assert.Error(t, err)
}

func TestRunCommand_SeededCounterfactual(t *testing.T) {
	first, err := execute(t, "run", "--seed", "7", "--trials", "50")
	require.NoError(t, err)
	second, err := execute(t, "run", "--seed", "7", "--trials", "50")
	require.NoError(t, err)

	counterfactual := func(out string) interface{} {
		var report map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		return report["counterfactual"]
	}
	assert.Equal(t, counterfactual(first), counterfactual(second))
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.yaml")
	content := `SPY:
  - {timestamp: "2026-01-01T16:00:00Z", open: 100, high: 102, low: 99, close: 101, volume: 1000000}
  - {timestamp: "2026-01-02T16:00:00Z", open: 101, high: 103, low: 100, close: 102, volume: 1000000}
  - {timestamp: "2026-01-05T16:00:00Z", open: 102, high: 104, low: 101, close: 103, volume: 1000000}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := execute(t, "replay", "--history-file", path, "--start", "2026-01-02", "--end", "2026-01-06")
	require.NoError(t, err)

	var result validation.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"SPY"}, result.Symbols)
	assert.Equal(t, 5, result.Report.TotalDecisionCycles)
	assert.Empty(t, result.Cycles)

	out, err = execute(t, "replay", "--history-file", path, "--start", "2026-01-02", "--end", "2026-01-06", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Stability score:")

	_, err = execute(t, "replay", "--history-file", path, "--start", "2026-01-06", "--end", "2026-01-02")
	assert.ErrorIs(t, err, validation.ErrInvalidRange)
}

func TestReplayCommand_NoSource(t *testing.T) {
	t.Setenv("HISTORY_S3_BUCKET", "")
	_, err := execute(t, "replay", "--symbols", "SPY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history source")
}

func TestReplayRange(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

	start, end, err := replayRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, end.Add(-defaultReplayWindow), start)

	start, end, err = replayRange("2026-01-02", "2026-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02", start.Format(dateLayout))
	assert.Equal(t, "2026-02-01", end.Format(dateLayout))

	_, _, err = replayRange("02/01/2026", "", now)
	assert.Error(t, err)
	_, _, err = replayRange("", "yesterday", now)
	assert.Error(t, err)
}

func TestWriteOutput_Msgpack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, formatMsgpack, map[string]int{"cycles": 3}))

	var decoded map[string]int
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["cycles"])
}

func TestWriteOutput_TextFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, formatText, map[string]int{"cycles": 3}))
	assert.JSONEq(t, `{"cycles": 3}`, buf.String())
}
