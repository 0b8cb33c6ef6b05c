// Package validation replays history through the decision engine and scores
// how calm its output stays. It measures stability, not returns.
package validation

import (
	"strings"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

var (
	passiveActions = []domain.Action{domain.ActionMaintain, domain.ActionHold, domain.ActionIgnore, domain.ActionWatchlist}
	bullishMarkers = []string{"ALLOCATE", "ALLOCATE_HIGH", "BUY"}
	bearishMarkers = []string{"REDUCE", "TRIM_RISK", "SELL", "FREE_CAPITAL"}
)

// Report is the stability scorecard of a replay
type Report struct {
	TotalDecisionCycles   int     `json:"total_decision_cycles"`
	InactionRatePct       float64 `json:"inaction_rate_pct"`
	DecisionChurnCount    int     `json:"decision_churn_count"`
	ChurnPerCycle         float64 `json:"churn_per_cycle"`
	StabilityScore        float64 `json:"stability_score"`
	MeanDecisionsPerCycle float64 `json:"mean_decisions_per_cycle"`
}

// Metrics accumulates decision cycles. Not safe for concurrent use.
type Metrics struct {
	totalCycles   int
	inactionCount int
	flips         int
	history       map[string][]domain.Action
	perCycle      []float64
}

// NewMetrics creates an empty tracker
func NewMetrics() *Metrics {
	return &Metrics{history: make(map[string][]domain.Action)}
}

// RecordCycle ingests the allowed decisions of one cycle. A cycle counts as
// inaction when every action is passive. A flip is a per-target switch
// between bullish and bearish actions.
func (m *Metrics) RecordCycle(decisions []domain.Decision) {
	m.totalCycles++
	m.perCycle = append(m.perCycle, float64(len(decisions)))

	acted := false
	for _, d := range decisions {
		if !isPassive(d.Action) {
			acted = true
		}

		past := m.history[d.Target]
		if len(past) > 0 && isFlip(past[len(past)-1], d.Action) {
			m.flips++
		}
		m.history[d.Target] = append(past, d.Action)
	}

	if !acted {
		m.inactionCount++
	}
}

// Report returns the scorecard so far
func (m *Metrics) Report() Report {
	r := Report{
		TotalDecisionCycles: m.totalCycles,
		DecisionChurnCount:  m.flips,
		StabilityScore:      1.0,
	}
	if m.totalCycles == 0 {
		return r
	}

	cycles := float64(m.totalCycles)
	r.InactionRatePct = formulas.Round(float64(m.inactionCount)/cycles*100, 1)
	r.ChurnPerCycle = formulas.Round(float64(m.flips)/cycles, 3)
	r.StabilityScore = formulas.Round(1.0-r.ChurnPerCycle, 2)
	r.MeanDecisionsPerCycle = formulas.Round(formulas.Mean(m.perCycle), 2)
	return r
}

func isPassive(action domain.Action) bool {
	for _, a := range passiveActions {
		if a == action {
			return true
		}
	}
	return false
}

func isFlip(prev, curr domain.Action) bool {
	wasBull := hasMarker(prev, bullishMarkers)
	wasBear := hasMarker(prev, bearishMarkers)
	isBull := hasMarker(curr, bullishMarkers)
	isBear := hasMarker(curr, bearishMarkers)
	return (wasBull && isBear) || (wasBear && isBull)
}

// hasMarker matches by substring, so REDUCE_RISK reads as bearish
func hasMarker(action domain.Action, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(string(action), m) {
			return true
		}
	}
	return false
}
