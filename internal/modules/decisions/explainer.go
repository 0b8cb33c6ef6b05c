package decisions

import (
	"fmt"
	"strings"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/concentration"
)

const minReasons = 2

// PortfolioSignals are the portfolio-level facts an explanation may cite
type PortfolioSignals struct {
	DeadCapitalSymbols   []string `json:"dead_capital_symbols"`
	HotSectors           []string `json:"hot_sectors"`
	ReallocationPressure bool     `json:"reallocation_pressure"`
	PressureScore        float64  `json:"pressure_score"`
}

// RiskSignals are the risk and opportunity facts an explanation may cite
type RiskSignals struct {
	Concentration           concentration.Warning        `json:"concentration_warning"`
	BetterOpportunityExists bool                         `json:"better_opp_exists"`
	OpportunityConfidence   domain.OpportunityConfidence `json:"opp_confidence"`
	Posture                 domain.MarketPosture         `json:"market_posture"`
}

// ExplainDecision maps already-computed signals to readable reasons.
// It applies no thresholds of its own beyond the score bands, and always
// returns at least two distinct reasons.
func ExplainDecision(d domain.Decision, portfolio PortfolioSignals, risk RiskSignals) []string {
	var reasons []string

	subject := "Position vitals"
	if d.IsCandidate() {
		subject = "Projected efficiency"
	}
	reasons = append(reasons, fmt.Sprintf("%s %s", subject, scoreBand(d.Score)))

	if contains(portfolio.DeadCapitalSymbols, d.Target) {
		reasons = append(reasons, "Identified as dead capital in cold sector")
	}

	if risk.BetterOpportunityExists {
		switch risk.OpportunityConfidence {
		case domain.OpportunityHigh:
			reasons = append(reasons, "High-confidence upgrade opportunity available")
		case domain.OpportunityMedium:
			reasons = append(reasons, "Medium-confidence opportunity detected")
		}
	}

	if contains(portfolio.HotSectors, d.Sector) {
		reasons = append(reasons, fmt.Sprintf("Sector %s shows strong momentum", d.Sector))
	}

	if risk.Concentration.IsBreachedSector(d.Sector) {
		reasons = append(reasons, fmt.Sprintf("Sector %s over-concentrated at %s", d.Sector, percent(risk.Concentration.Exposure)))
	}
	if risk.Concentration.IsApproachingSector(d.Sector) {
		reasons = append(reasons, fmt.Sprintf("Sector %s approaching concentration limit", d.Sector))
	}

	if portfolio.ReallocationPressure {
		reasons = append(reasons, "Portfolio requires capital reallocation")
	}

	if contains(d.Flags, domain.FlagStagnant) {
		reasons = append(reasons, "Position stagnant for extended period")
	}
	if contains(d.Flags, domain.FlagDataError) {
		reasons = append(reasons, "Position data incomplete or invalid")
	}

	switch d.Action {
	case domain.ActionReduceRisk, domain.ActionBlockPosture:
		reasons = append(reasons, fmt.Sprintf("Market posture is %s", risk.Posture))
	}

	switch d.Action {
	case domain.ActionFreeCapital, domain.ActionReduceAggressive, domain.ActionReduce:
		if !anyContains(reasons, "capital", "vitals") {
			reasons = append(reasons, "Risk mitigation required")
		}
	case domain.ActionAllocateHigh, domain.ActionAllocate, domain.ActionAllocateCapped:
		if d.IsCandidate() && !anyContains(reasons, "sector", "opportunity") {
			reasons = append(reasons, "Positive risk/reward profile")
		}
	}

	reasons = dedupe(reasons)
	for len(reasons) < minReasons {
		fallback := fmt.Sprintf("Action %s based on current position state", d.Action)
		if d.IsCandidate() {
			fallback = fmt.Sprintf("Action %s based on market assessment", d.Action)
		}
		if contains(reasons, fallback) {
			break
		}
		reasons = append(reasons, fallback)
	}
	return reasons
}

// EnrichDecisions returns copies of decisions with Reasons attached
func EnrichDecisions(decisions []domain.Decision, portfolio PortfolioSignals, risk RiskSignals) []domain.Decision {
	enriched := make([]domain.Decision, len(decisions))
	for i, d := range decisions {
		c := d.Clone()
		c.Reasons = ExplainDecision(d, portfolio, risk)
		enriched[i] = c
	}
	return enriched
}

func scoreBand(score float64) string {
	switch {
	case score >= 70:
		return "strong"
	case score >= 60:
		return "acceptable"
	case score >= 40:
		return "weak"
	default:
		return "critically low"
	}
}

// percent renders a fraction as a whole percentage (0.75 -> "75%")
func percent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", fraction*100)
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func anyContains(reasons []string, words ...string) bool {
	for _, r := range reasons {
		lower := strings.ToLower(r)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
	}
	return false
}

func dedupe(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
