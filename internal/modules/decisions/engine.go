// Package decisions synthesizes per-position and per-candidate actions for one cycle.
package decisions

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/market_regime"
	"github.com/aristath/vitals/internal/modules/capital"
	"github.com/aristath/vitals/internal/modules/concentration"
	"github.com/aristath/vitals/internal/modules/opportunities"
	"github.com/aristath/vitals/internal/modules/safety"
	"github.com/aristath/vitals/internal/modules/signals"
	"github.com/aristath/vitals/internal/modules/superiority"
	"github.com/aristath/vitals/internal/modules/vitals"
	"github.com/aristath/vitals/pkg/formulas"
)

// Signal sources
const (
	SourceComputed = "computed"
	SourceOverride = "override"
)

// Cash above which a hot sector can be entered without reallocation pressure
const liquidityFloor = 100_000.0

// SignalSnapshot records the market signals the cycle ran on and where each came from
type SignalSnapshot struct {
	VolatilityState  domain.VolatilityState `json:"volatility_state" msgpack:"volatility_state"`
	ATR              *float64               `json:"atr" msgpack:"atr"`
	BaselineATR      *float64               `json:"baseline_atr" msgpack:"baseline_atr"`
	ATRPctChange     float64                `json:"atr_pct_change" msgpack:"atr_pct_change"`
	NewsScore        float64                `json:"news_score" msgpack:"news_score"`
	HeadlineCount    int                    `json:"headline_count" msgpack:"headline_count"`
	SectorConfidence int                    `json:"sector_confidence" msgpack:"sector_confidence"`
	Source           map[string]string      `json:"source" msgpack:"source"`
}

// DecisionReport is the full output of one decision cycle
type DecisionReport struct {
	CycleID             string                      `json:"cycle_id,omitempty" msgpack:"cycle_id,omitempty"`
	GeneratedAt         time.Time                   `json:"generated_at" msgpack:"generated_at"`
	Scenario            string                      `json:"scenario,omitempty" msgpack:"scenario,omitempty"`
	PortfolioSummary    string                      `json:"portfolio_summary" msgpack:"portfolio_summary"`
	PressureScore       float64                     `json:"pressure_score" msgpack:"pressure_score"`
	ReallocationTrigger bool                        `json:"reallocation_trigger" msgpack:"reallocation_trigger"`
	ConcentrationRisk   concentration.Warning       `json:"concentration_risk" msgpack:"concentration_risk"`
	SectorExposure      map[string]float64          `json:"sector_exposure" msgpack:"sector_exposure"`
	OpportunityScan     opportunities.Scan          `json:"opportunity_scan" msgpack:"opportunity_scan"`
	LockIn              capital.LockInReport        `json:"lock_in" msgpack:"lock_in"`
	MarketPosture       market_regime.PostureReport `json:"market_posture" msgpack:"market_posture"`
	Signals             SignalSnapshot              `json:"signals" msgpack:"signals"`
	VitalsSummary       domain.HealthSummary        `json:"vitals_summary" msgpack:"vitals_summary"`
	Positions           []domain.AnalyzedPosition   `json:"positions" msgpack:"positions"`
	Decisions           []domain.Decision           `json:"decisions" msgpack:"decisions"`
	BlockedBySafety     []domain.Decision           `json:"blocked_by_safety" msgpack:"blocked_by_safety"`
	GuardrailSummary    string                      `json:"guardrail_summary" msgpack:"guardrail_summary"`
	Superiority         *superiority.Analysis       `json:"superiority,omitempty" msgpack:"superiority,omitempty"`
	Counterfactual      *superiority.Counterfactual `json:"counterfactual,omitempty" msgpack:"counterfactual,omitempty"`
	ExecutionContext    domain.ExecutionContext     `json:"execution_context" msgpack:"execution_context"`
}

// RunDecisionEngine runs one full decision cycle. It is deterministic: the same
// inputs always produce the same report. Inputs are never mutated.
//
// A nil exec runs with DefaultExecutionContext. Non-finite numeric inputs read
// as 0 or missing so the report always serializes.
func RunDecisionEngine(
	portfolio domain.PortfolioState,
	positions []domain.Position,
	heatmap domain.SectorHeatmap,
	candidates []domain.Candidate,
	market domain.MarketContext,
	exec *domain.ExecutionContext,
) DecisionReport {
	execution := domain.DefaultExecutionContext()
	if exec != nil {
		execution = *exec
	}

	portfolio = portfolio.Normalized()
	heatmap = heatmap.Normalized()
	normalizedPositions := make([]domain.Position, len(positions))
	for i, p := range positions {
		normalizedPositions[i] = p.Normalized()
	}
	normalizedCandidates := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		normalizedCandidates[i] = c.Normalized()
	}

	// 1. market signals
	snapshot := DeriveSignals(market)

	// 2. vitals
	analyzed := vitals.AnalyzePositions(normalizedPositions)
	health := vitals.SummarizeHealth(analyzed)

	// 3. posture
	posture := market_regime.DeterminePosture(snapshot.VolatilityState, snapshot.SectorConfidence, health)

	// 4. lock-in
	lockIn := capital.DetectCapitalLockIn(portfolio, analyzed, heatmap)

	// 5. concentration
	held := make([]domain.Position, len(analyzed))
	for i, p := range analyzed {
		held[i] = p.Position
	}
	conc := concentration.AnalyzePortfolioConcentration(held, portfolio.TotalCapital, concentration.DefaultThresholds())
	warning := conc.Warning

	// 6. inflow filter
	active := normalizedCandidates
	inflowsBlocked := posture.Posture.BlocksInflows()
	if inflowsBlocked {
		active = nil
	}

	// 7. opportunity scan
	scan := opportunities.ScanForOpportunities(analyzed, active, opportunities.DefaultUpgradeThreshold)

	// 8-9. raw decisions
	proposed := make([]domain.Decision, 0, len(analyzed)+len(normalizedCandidates))
	for _, p := range analyzed {
		proposed = append(proposed, decidePosition(p, lockIn, warning, scan, posture.Posture))
	}
	for _, c := range normalizedCandidates {
		proposed = append(proposed, decideCandidate(c, inflowsBlocked, posture.Posture, lockIn, warning, portfolio.Cash))
	}

	// 10. explain, guard, summarize
	portfolioSignals := PortfolioSignals{
		DeadCapitalSymbols:   deadSymbols(lockIn),
		HotSectors:           lockIn.HotSectors,
		ReallocationPressure: lockIn.ReallocationAlert,
		PressureScore:        lockIn.PressureScore,
	}
	riskSignals := RiskSignals{
		Concentration:           warning,
		BetterOpportunityExists: scan.BetterOpportunityExists,
		OpportunityConfidence:   scan.Confidence,
		Posture:                 posture.Posture,
	}
	explained := EnrichDecisions(proposed, portfolioSignals, riskSignals)

	guarded := safety.ApplyRiskGuardrails(explained, &safety.RiskContext{
		Concentration:   warning,
		CashAvailable:   portfolio.Cash,
		MinimumReserve:  execution.MinimumReserve,
		VolatilityState: snapshot.VolatilityState,
	})

	report := DecisionReport{
		PortfolioSummary:    pmSummary(lockIn, posture, warning),
		PressureScore:       lockIn.PressureScore,
		ReallocationTrigger: lockIn.ReallocationAlert,
		ConcentrationRisk:   warning,
		SectorExposure:      conc.ExposureMap,
		OpportunityScan:     scan,
		LockIn:              lockIn,
		MarketPosture:       posture,
		Signals:             snapshot,
		VitalsSummary:       health,
		Positions:           analyzed,
		Decisions:           guarded.Allowed,
		BlockedBySafety:     guarded.Blocked,
		GuardrailSummary:    safety.SummarizeGuardrailResults(guarded),
		ExecutionContext:    execution,
	}
	if execution.IncludeSuperiority {
		report.Superiority = superiority.Analyze(guarded.Allowed, posture.Posture)
	}
	return report
}

// DeriveSignals computes volatility, news and confidence from the market
// context. Each overridden field replaces its computed value; confidence is
// derived from whichever state and news score end up in effect.
func DeriveSignals(market domain.MarketContext) SignalSnapshot {
	snapshot := SignalSnapshot{
		VolatilityState: domain.VolatilityStable,
		Source:          map[string]string{},
	}

	atr := signals.ComputeATR(market.Candles, signals.DefaultATRPeriod)
	snapshot.ATR = atr.ATR
	if atr.ATR != nil {
		baseline := *atr.ATR
		if market.BaselineATR != nil && formulas.IsFinite(*market.BaselineATR) {
			baseline = *market.BaselineATR
		}
		snapshot.BaselineATR = &baseline
		vol := signals.ClassifyVolatilityState(*atr.ATR, baseline, signals.DefaultVolatilityThresholdPct)
		snapshot.VolatilityState = vol.State
		snapshot.ATRPctChange = vol.PctChange
	}
	snapshot.Source["volatility_state"] = SourceComputed
	if market.Overrides.VolatilityState != nil {
		snapshot.VolatilityState = *market.Overrides.VolatilityState
		snapshot.Source["volatility_state"] = SourceOverride
	}

	news := signals.ScoreNews(market.Headlines)
	snapshot.NewsScore = float64(news.Score)
	snapshot.HeadlineCount = news.HeadlineCount
	snapshot.Source["news_score"] = SourceComputed
	if market.Overrides.NewsScore != nil && formulas.IsFinite(*market.Overrides.NewsScore) {
		snapshot.NewsScore = *market.Overrides.NewsScore
		snapshot.Source["news_score"] = SourceOverride
	}

	snapshot.SectorConfidence = signals.ComputeSectorConfidence(snapshot.VolatilityState, snapshot.NewsScore)
	snapshot.Source["sector_confidence"] = SourceComputed
	if market.Overrides.SectorConfidence != nil {
		snapshot.SectorConfidence = *market.Overrides.SectorConfidence
		snapshot.Source["sector_confidence"] = SourceOverride
	}

	return snapshot
}

func decidePosition(
	p domain.AnalyzedPosition,
	lockIn capital.LockInReport,
	warning concentration.Warning,
	scan opportunities.Scan,
	posture domain.MarketPosture,
) domain.Decision {
	score := formulas.FormatDecimal(p.VitalsScore)

	var action domain.Action
	var reason string
	switch {
	case lockIn.IsDead(p.Symbol) && lockIn.ReallocationAlert:
		if scan.IsHighConfidenceUpgrade() {
			action = domain.ActionFreeCapital
			reason = fmt.Sprintf("Dead capital (%s) in cold sector. High-confidence upgrade available.", score)
		} else {
			action = domain.ActionReduceAggressive
			reason = fmt.Sprintf("Dead capital (%s) in cold sector dragging portfolio.", score)
		}
	case warning.IsBreachedSector(p.Sector):
		if p.VitalsScore < vitals.WeakBelow {
			action = domain.ActionTrimRisk
			reason = fmt.Sprintf("Sector %s over-concentrated (%s). Trimming weak position.", p.Sector, percent(warning.Exposure))
		} else {
			action = domain.ActionHoldCapped
			reason = fmt.Sprintf("Sector %s over-concentrated. No further allocation allowed.", p.Sector)
		}
	case p.VitalsScore < vitals.UnhealthyBelow:
		action = domain.ActionReduce
		reason = fmt.Sprintf("Vitals critically low (%s). Reduce exposure.", score)
	case p.HasFlag(domain.FlagStagnant):
		action = domain.ActionReview
		reason = "Position is profitable but stagnant (>20 days, <2% return)."
	case p.VitalsScore < vitals.WeakBelow:
		action = domain.ActionHold
		reason = fmt.Sprintf("Weak vitals (%s). Monitoring.", score)
	default:
		action = domain.ActionMaintain
		reason = fmt.Sprintf("Strong vitals (%s). Efficient.", score)
	}

	// RISK_OFF only softens passive actions; existing exits stay as they are
	if posture == domain.PostureRiskOff {
		switch action {
		case domain.ActionHold, domain.ActionReview, domain.ActionMaintain:
			action = domain.ActionReduceRisk
			reason = "RISK_OFF posture triggered. Reducing exposure."
		}
	}

	d := domain.NewPositionDecision(p.Symbol, p.Sector, action, reason, p.VitalsScore)
	d.Flags = append([]string{}, p.Flags...)
	return d
}

func decideCandidate(
	c domain.Candidate,
	inflowsBlocked bool,
	posture domain.MarketPosture,
	lockIn capital.LockInReport,
	warning concentration.Warning,
	cash float64,
) domain.Decision {
	action := domain.ActionIgnore
	reason := fmt.Sprintf("Sector %s not attractive.", c.Sector)

	approaching := warning.IsApproachingSector(c.Sector)
	switch {
	case inflowsBlocked:
		action = domain.ActionBlockPosture
		reason = fmt.Sprintf("Market Posture is %s. inflows blocked.", posture)
	case warning.IsBreachedSector(c.Sector):
		action = domain.ActionBlockRisk
		reason = fmt.Sprintf("Cannot allocate. Sector %s already over-concentrated (%s).", c.Sector, percent(warning.Exposure))
	case lockIn.IsHot(c.Sector):
		switch {
		case lockIn.ReallocationAlert && approaching:
			action = domain.ActionAllocateCapped
			reason = fmt.Sprintf("Hot sector (%s), but nearing concentration limit.", c.Sector)
		case lockIn.ReallocationAlert:
			action = domain.ActionAllocateHigh
			reason = fmt.Sprintf("Hot sector (%s). Deploying freed capital.", c.Sector)
		case cash > liquidityFloor && approaching:
			action = domain.ActionAllocateCautious
			reason = "Hot sector, but nearing concentration limit."
		case cash > liquidityFloor:
			action = domain.ActionAllocate
			reason = "Hot sector. Sufficient liquidity."
		default:
			action = domain.ActionWatchlist
			reason = "Hot sector, but limited capital."
		}
	}

	return domain.NewCandidateDecision(c.Symbol, c.Sector, action, reason, c.ProjectedEfficiency)
}

func deadSymbols(lockIn capital.LockInReport) []string {
	symbols := make([]string, len(lockIn.DeadPositions))
	for i, p := range lockIn.DeadPositions {
		symbols[i] = p.Symbol
	}
	return symbols
}

func pmSummary(lockIn capital.LockInReport, posture market_regime.PostureReport, warning concentration.Warning) string {
	parts := []string{
		lockIn.Summary,
		fmt.Sprintf("POSTURE: %s (Conf: %d).", posture.Posture, posture.Confidence),
	}
	if warning.IsConcentrated {
		parts = append(parts, fmt.Sprintf("ALERT: %s sector over-concentrated.", warning.DominantSector))
	}
	return strings.Join(parts, " ")
}
