// Package market_regime classifies the overall market stance for a decision cycle.
package market_regime

import (
	"fmt"

	"github.com/aristath/vitals/internal/domain"
)

// Confidence cut-offs per volatility regime
const (
	defensiveConfidenceBelow   = 50
	aggressiveConfidenceAbove  = 70
	opportunityConfidenceAbove = 65
)

// PostureReport is the derived stance, read-only for the rest of the cycle
type PostureReport struct {
	Posture    domain.MarketPosture `json:"market_posture" msgpack:"market_posture"`
	RiskLevel  domain.RiskLevel     `json:"risk_level" msgpack:"risk_level"`
	Confidence int                  `json:"confidence" msgpack:"confidence"`
	Reasons    []string             `json:"reasons" msgpack:"reasons"`
}

// DeterminePosture applies the posture rules in priority order.
// Portfolio health comes first: more unhealthy than healthy positions forces
// RISK_OFF whatever the market says.
func DeterminePosture(state domain.VolatilityState, confidence int, health domain.HealthSummary) PostureReport {
	if health.Unhealthy > health.Healthy {
		return PostureReport{
			Posture:    domain.PostureRiskOff,
			RiskLevel:  domain.RiskHigh,
			Confidence: confidence,
			Reasons: []string{
				fmt.Sprintf("Portfolio unhealthy (%d > %d). Protecting capital.", health.Unhealthy, health.Healthy),
			},
		}
	}

	report := PostureReport{
		Posture:    domain.PostureNeutral,
		RiskLevel:  domain.RiskMedium,
		Confidence: confidence,
		Reasons:    []string{fmt.Sprintf("Volatility is %s (Conf: %d)", state, confidence)},
	}

	switch state {
	case domain.VolatilityExpanding:
		report.RiskLevel = domain.RiskHigh
		if confidence < defensiveConfidenceBelow {
			report.Posture = domain.PostureDefensive
			report.Reasons = append(report.Reasons, "High uncertainty with weak sector confidence.")
		} else {
			report.Reasons = append(report.Reasons, "High volatility but sector confidence holds.")
		}
	case domain.VolatilityContracting:
		report.RiskLevel = domain.RiskLow
		if confidence > aggressiveConfidenceAbove {
			report.Posture = domain.PostureAggressive
			report.Reasons = append(report.Reasons, "Volatility cooling + High confidence -> Trend following.")
		} else {
			report.Reasons = append(report.Reasons, "Volatility cooling but confidence insufficient for aggression.")
		}
	case domain.VolatilityStable:
		if confidence > opportunityConfidenceAbove {
			report.Posture = domain.PostureOpportunity
			report.Reasons = append(report.Reasons, "Stable market with strong signals.")
		} else {
			report.Reasons = append(report.Reasons, "Stable market, waiting for stronger signals.")
		}
	default:
		report.Reasons = append(report.Reasons, "Market state unknown.")
	}

	return report
}
