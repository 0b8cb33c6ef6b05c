package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/modules/planning"
	"github.com/aristath/vitals/internal/modules/scenarios"
	"github.com/aristath/vitals/internal/validation"
)

const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
	formatText    = "text"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatMsgpack, formatText:
		return nil
	default:
		return fmt.Errorf("unknown format %q: use json, msgpack or text", format)
	}
}

// writeOutput encodes v in the requested format. text falls back to
// indented JSON for values without a text renderer.
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatMsgpack:
		data, err := msgpack.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode msgpack: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatText:
		if renderText(w, v) {
			return nil
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderText(w io.Writer, v interface{}) bool {
	switch value := v.(type) {
	case decisions.DecisionReport:
		renderReport(w, value)
	case planOutput:
		renderPlan(w, value)
	case []scenarios.Scenario:
		renderScenarios(w, value)
	case *validation.Result:
		renderReplay(w, value)
	default:
		return false
	}
	return true
}

func renderReport(w io.Writer, report decisions.DecisionReport) {
	fmt.Fprintf(w, "Cycle %s\n", report.CycleID)
	if report.Scenario != "" {
		fmt.Fprintf(w, "Scenario: %s\n", report.Scenario)
	}
	fmt.Fprintf(w, "Posture: %s (risk %s, confidence %d)\n",
		report.MarketPosture.Posture, report.MarketPosture.RiskLevel, report.MarketPosture.Confidence)
	fmt.Fprintf(w, "Pressure: %.2f  Reallocation: %t\n", report.PressureScore, report.ReallocationTrigger)
	fmt.Fprintf(w, "%s\n\n", report.PortfolioSummary)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tTYPE\tACTION\tSCORE\tREASON")
	writeDecisions(tw, report.Decisions, false)
	writeDecisions(tw, report.BlockedBySafety, true)
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n", report.GuardrailSummary)
}

func writeDecisions(w io.Writer, list []domain.Decision, blocked bool) {
	for _, d := range list {
		reason := d.Reason
		action := string(d.Action)
		if blocked {
			action += " (blocked)"
			reason = d.SafetyReason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\n", d.Target, d.Type(), action, d.Score, reason)
	}
}

func renderPlan(w io.Writer, out planOutput) {
	fmt.Fprintf(w, "Cycle %s: %s, %d proposed, %d blocked, mode %s\n\n",
		out.CycleID, out.Summary.Decision, out.Summary.ActionsProposed, out.Summary.ActionsBlocked, out.Summary.FinalMode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tACTION\tREASON")
	for _, a := range out.Plan.ProposedActions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Symbol, a.Action, a.Reason)
	}
	tw.Flush()
}

func renderScenarios(w io.Writer, list []scenarios.Scenario) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tBADGES")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Label, strings.Join(s.Badges, ", "))
	}
	tw.Flush()
}

func renderReplay(w io.Writer, result *validation.Result) {
	r := result.Report
	fmt.Fprintf(w, "Replay %s..%s over %s (reference %s)\n",
		result.Start, result.End, strings.Join(result.Symbols, ","), result.Reference)
	fmt.Fprintf(w, "Cycles: %d\n", r.TotalDecisionCycles)
	fmt.Fprintf(w, "Inaction rate: %.1f%%\n", r.InactionRatePct)
	fmt.Fprintf(w, "Churn: %d (%.3f per cycle)\n", r.DecisionChurnCount, r.ChurnPerCycle)
	fmt.Fprintf(w, "Stability score: %.2f\n", r.StabilityScore)
	fmt.Fprintf(w, "Mean decisions per cycle: %.2f\n", r.MeanDecisionsPerCycle)
}

// planOutput is what run --plan prints
type planOutput struct {
	CycleID string           `json:"cycle_id" msgpack:"cycle_id"`
	Plan    planning.Plan    `json:"plan" msgpack:"plan"`
	Summary planning.Summary `json:"summary" msgpack:"summary"`
}
