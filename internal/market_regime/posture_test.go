package market_regime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/vitals/internal/domain"
)

func TestDeterminePosture(t *testing.T) {
	balanced := domain.HealthSummary{Healthy: 2, Weak: 1, Unhealthy: 1}

	tests := []struct {
		name       string
		state      domain.VolatilityState
		confidence int
		health     domain.HealthSummary
		posture    domain.MarketPosture
		risk       domain.RiskLevel
		lastReason string
	}{
		{"unhealthy portfolio overrides market", domain.VolatilityContracting, 95, domain.HealthSummary{Healthy: 0, Unhealthy: 2},
			domain.PostureRiskOff, domain.RiskHigh, "Portfolio unhealthy (2 > 0). Protecting capital."},
		{"expanding weak confidence", domain.VolatilityExpanding, 49, balanced,
			domain.PostureDefensive, domain.RiskHigh, "High uncertainty with weak sector confidence."},
		{"expanding confidence holds", domain.VolatilityExpanding, 50, balanced,
			domain.PostureNeutral, domain.RiskHigh, "High volatility but sector confidence holds."},
		{"contracting high confidence", domain.VolatilityContracting, 71, balanced,
			domain.PostureAggressive, domain.RiskLow, "Volatility cooling + High confidence -> Trend following."},
		{"contracting at boundary", domain.VolatilityContracting, 70, balanced,
			domain.PostureNeutral, domain.RiskLow, "Volatility cooling but confidence insufficient for aggression."},
		{"stable strong signals", domain.VolatilityStable, 66, balanced,
			domain.PostureOpportunity, domain.RiskMedium, "Stable market with strong signals."},
		{"stable waiting", domain.VolatilityStable, 65, balanced,
			domain.PostureNeutral, domain.RiskMedium, "Stable market, waiting for stronger signals."},
		{"unknown state fails safe", domain.VolatilityState("CHAOTIC"), 90, balanced,
			domain.PostureNeutral, domain.RiskMedium, "Market state unknown."},
		{"tie in health is not risk off", domain.VolatilityStable, 50, domain.HealthSummary{Healthy: 1, Unhealthy: 1},
			domain.PostureNeutral, domain.RiskMedium, "Stable market, waiting for stronger signals."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := DeterminePosture(tt.state, tt.confidence, tt.health)
			assert.Equal(t, tt.posture, report.Posture)
			assert.Equal(t, tt.risk, report.RiskLevel)
			assert.Equal(t, tt.confidence, report.Confidence)
			assert.Equal(t, tt.lastReason, report.Reasons[len(report.Reasons)-1])
		})
	}
}

func TestDeterminePosture_ReasonShape(t *testing.T) {
	riskOff := DeterminePosture(domain.VolatilityStable, 80, domain.HealthSummary{Unhealthy: 1})
	assert.Len(t, riskOff.Reasons, 1)

	neutral := DeterminePosture(domain.VolatilityExpanding, 60, domain.HealthSummary{Healthy: 1})
	assert.Equal(t, []string{
		"Volatility is EXPANDING (Conf: 60)",
		"High volatility but sector confidence holds.",
	}, neutral.Reasons)
}
