// Package vitals scores the capital efficiency of held positions.
package vitals

import (
	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

// Calibration constants. Scores are only comparable across runs if these stay fixed.
const (
	baseScore        = 50.0
	scoreScale       = 10.0
	minATR           = 0.0001
	capitalUnit      = 100000.0
	volAdjWeight     = 0.5
	efficiencyWeight = 0.3
	timeWeight       = 0.2
	timeDecayDays    = 10.0

	// Band edges
	UnhealthyBelow = 40.0
	WeakBelow      = 60.0

	// A position is stagnant when it has been held this long without this much return
	stagnantDays   = 20
	stagnantPnLPct = 2.0
)

// ComputeVitals scores one position. It never fails: a position whose numbers
// cannot be scored comes back UNHEALTHY with vitals 0 and the DATA_ERROR flag,
// its non-finite numbers zeroed.
func ComputeVitals(p domain.Position) domain.AnalyzedPosition {
	if p.EntryPrice <= 0 || !formulas.IsFinite(p.EntryPrice, p.CurrentPrice, p.ATR, p.CapitalAllocated) {
		return domain.AnalyzedPosition{
			Position:        p.Sanitized(),
			VitalsScore:     0,
			Health:          domain.HealthUnhealthy,
			SuggestedAction: domain.SuggestReduceExit,
			Flags:           []string{domain.FlagDataError},
		}
	}

	days := p.DaysHeld
	if days < 0 {
		days = 0
	}

	pnlPct := (p.CurrentPrice - p.EntryPrice) / p.EntryPrice * 100
	volAdjReturn := pnlPct / max(p.ATR, minATR)
	timePenalty := float64(days) / timeDecayDays
	capitalEfficiency := pnlPct / (max(p.CapitalAllocated, 1.0) / capitalUnit)

	rawEfficiency := volAdjWeight*volAdjReturn + efficiencyWeight*capitalEfficiency - timeWeight*timePenalty
	score := formulas.Round(formulas.Clamp(baseScore+rawEfficiency*scoreScale, 0, 100), 2)

	flags := []string{}
	if pnlPct < stagnantPnLPct && days > stagnantDays {
		flags = append(flags, domain.FlagStagnant)
	}

	health, suggestion := Classify(score)

	return domain.AnalyzedPosition{
		Position:        p,
		VitalsScore:     score,
		Health:          health,
		SuggestedAction: suggestion,
		Drivers: domain.VitalsDrivers{
			PnLPct:            formulas.Round(pnlPct, 2),
			VolAdjReturn:      formulas.Round(volAdjReturn, 4),
			TimePenalty:       formulas.Round(timePenalty, 2),
			CapitalEfficiency: formulas.Round(capitalEfficiency, 4),
			RawEfficiency:     formulas.Round(rawEfficiency, 4),
		},
		Flags: flags,
	}
}

// Classify maps a vitals score to its health band and suggested action
func Classify(score float64) (domain.HealthStatus, string) {
	switch {
	case score < UnhealthyBelow:
		return domain.HealthUnhealthy, domain.SuggestReduceExit
	case score < WeakBelow:
		return domain.HealthWeak, domain.SuggestHoldMonitor
	default:
		return domain.HealthHealthy, domain.SuggestHoldScale
	}
}

// AnalyzePositions scores every position, preserving input order
func AnalyzePositions(positions []domain.Position) []domain.AnalyzedPosition {
	analyzed := make([]domain.AnalyzedPosition, 0, len(positions))
	for _, p := range positions {
		analyzed = append(analyzed, ComputeVitals(p))
	}
	return analyzed
}

// SummarizeHealth tallies positions per health band
func SummarizeHealth(positions []domain.AnalyzedPosition) domain.HealthSummary {
	var summary domain.HealthSummary
	for _, p := range positions {
		switch p.Health {
		case domain.HealthHealthy:
			summary.Healthy++
		case domain.HealthWeak:
			summary.Weak++
		case domain.HealthUnhealthy:
			summary.Unhealthy++
		}
	}
	return summary
}
