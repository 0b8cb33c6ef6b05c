package opportunities

import (
	"fmt"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

// DefaultUpgradeThreshold is the efficiency gap needed to justify a swap.
// It absorbs switching costs and friction.
const DefaultUpgradeThreshold = 15.0

const missingSymbol = "N/A"

// Scan compares the weakest held position with the strongest external candidate
type Scan struct {
	WeakestHeldSymbol         string                       `json:"weakest_held_symbol" msgpack:"weakest_held_symbol"`
	WeakestHeldScore          float64                      `json:"weakest_held_score" msgpack:"weakest_held_score"`
	BestExternalSymbol        string                       `json:"best_external_symbol" msgpack:"best_external_symbol"`
	BestExternalScore         float64                      `json:"best_external_score" msgpack:"best_external_score"`
	EfficiencyGap             float64                      `json:"efficiency_gap" msgpack:"efficiency_gap"`
	BetterOpportunityExists   bool                         `json:"better_opportunity_exists" msgpack:"better_opportunity_exists"`
	Confidence                domain.OpportunityConfidence `json:"confidence" msgpack:"confidence"`
	Summary                   string                       `json:"summary" msgpack:"summary"`
	BestHeldEfficiencyContext float64                      `json:"best_held_efficiency_context" msgpack:"best_held_efficiency_context"`
}

// IsHighConfidenceUpgrade reports whether a swap is both available and HIGH confidence
func (s Scan) IsHighConfidenceUpgrade() bool {
	return s.BetterOpportunityExists && s.Confidence == domain.OpportunityHigh
}

// ScanForOpportunities finds whether the best candidate beats the weakest
// holding by more than threshold. A non-positive threshold uses the default.
//
// An empty portfolio with candidates always counts as an opportunity.
// Without candidates there is never one.
func ScanForOpportunities(positions []domain.AnalyzedPosition, candidates []domain.Candidate, threshold float64) Scan {
	if threshold <= 0 {
		threshold = DefaultUpgradeThreshold
	}

	scan := Scan{
		WeakestHeldSymbol:  missingSymbol,
		BestExternalSymbol: missingSymbol,
		Confidence:         domain.OpportunityNA,
		Summary:            "No significant upgrade available.",
	}

	var weakest *domain.AnalyzedPosition
	for i := range positions {
		if weakest == nil || positions[i].VitalsScore < weakest.VitalsScore {
			weakest = &positions[i]
		}
		if i == 0 || positions[i].VitalsScore > scan.BestHeldEfficiencyContext {
			scan.BestHeldEfficiencyContext = positions[i].VitalsScore
		}
	}

	var best *domain.Candidate
	for i := range candidates {
		if best == nil || candidates[i].ProjectedEfficiency > best.ProjectedEfficiency {
			best = &candidates[i]
		}
	}

	if best != nil {
		scan.BestExternalScore = best.ProjectedEfficiency
		scan.BestExternalSymbol = symbolOrMissing(best.Symbol)
	}

	if weakest == nil {
		scan.EfficiencyGap = scan.BestExternalScore
		if best != nil {
			scan.BetterOpportunityExists = true
			scan.Confidence = domain.OpportunityHigh
			scan.Summary = "Portfolio is empty. External opportunities available."
		}
		return scan
	}

	scan.WeakestHeldSymbol = symbolOrMissing(weakest.Symbol)
	scan.WeakestHeldScore = weakest.VitalsScore
	gap := scan.BestExternalScore - weakest.VitalsScore
	scan.EfficiencyGap = formulas.Round(gap, 1)

	if best == nil {
		return scan
	}

	if gap > threshold {
		scan.BetterOpportunityExists = true
		scan.Confidence = domain.OpportunityMedium
		if gap > 2*threshold {
			scan.Confidence = domain.OpportunityHigh
		}
		scan.Summary = fmt.Sprintf("Upgrade Opportunity: Swap %s (%s) for %s (%s). Efficiency Gain: +%s",
			scan.WeakestHeldSymbol, formulas.FormatDecimal(scan.WeakestHeldScore),
			scan.BestExternalSymbol, formulas.FormatDecimal(scan.BestExternalScore),
			formulas.FormatDecimal(scan.EfficiencyGap))
		return scan
	}

	scan.Confidence = domain.OpportunityLow
	scan.Summary = fmt.Sprintf("Hold: Best external gap (+%s) does not exceed threshold (%s).",
		formulas.FormatDecimal(scan.EfficiencyGap), formulas.FormatDecimal(threshold))
	return scan
}

func symbolOrMissing(symbol string) string {
	if symbol == "" {
		return missingSymbol
	}
	return symbol
}
