package decisions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/concentration"
)

func TestExplainDecision(t *testing.T) {
	tests := []struct {
		name      string
		decision  domain.Decision
		portfolio PortfolioSignals
		risk      RiskSignals
		want      []string
	}{
		{
			name:     "dead capital with upgrade",
			decision: domain.NewPositionDecision("SLOW_UTIL", "UTILITIES", domain.ActionFreeCapital, "", 35),
			portfolio: PortfolioSignals{
				DeadCapitalSymbols:   []string{"SLOW_UTIL"},
				HotSectors:           []string{"TECH"},
				ReallocationPressure: true,
				PressureScore:        75,
			},
			risk: RiskSignals{BetterOpportunityExists: true, OpportunityConfidence: domain.OpportunityHigh},
			want: []string{
				"Position vitals critically low",
				"Identified as dead capital in cold sector",
				"High-confidence upgrade opportunity available",
				"Portfolio requires capital reallocation",
			},
		},
		{
			name:      "candidate in hot sector",
			decision:  domain.NewCandidateDecision("NEW_TECH", "TECH", domain.ActionAllocateHigh, "", 85),
			portfolio: PortfolioSignals{HotSectors: []string{"TECH"}},
			want: []string{
				"Projected efficiency strong",
				"Sector TECH shows strong momentum",
			},
		},
		{
			name:     "held position in breached sector",
			decision: domain.NewPositionDecision("MSFT", "TECH", domain.ActionTrimRisk, "", 55),
			risk: RiskSignals{Concentration: concentration.Warning{
				IsConcentrated: true,
				DominantSector: "TECH",
				Exposure:       0.75,
				Threshold:      0.70,
				Severity:       domain.SeveritySoftBreach,
			}},
			want: []string{
				"Position vitals weak",
				"Sector TECH over-concentrated at 75%",
			},
		},
		{
			name:     "approaching limit",
			decision: domain.NewCandidateDecision("AMD", "TECH", domain.ActionAllocateCautious, "", 65),
			risk: RiskSignals{Concentration: concentration.Warning{
				DominantSector: "TECH",
				Exposure:       0.65,
				Threshold:      0.60,
				Severity:       domain.SeverityApproaching,
			}},
			want: []string{
				"Projected efficiency acceptable",
				"Sector TECH approaching concentration limit",
			},
		},
		{
			name:     "posture block",
			decision: domain.NewCandidateDecision("NEW_BIO", "BIOTECH", domain.ActionBlockPosture, "", 75),
			risk:     RiskSignals{Posture: domain.PostureRiskOff},
			want: []string{
				"Projected efficiency strong",
				"Market posture is RISK_OFF",
			},
		},
		{
			name:     "allocation without supporting signal",
			decision: domain.NewCandidateDecision("X", "MISC", domain.ActionAllocate, "", 45),
			want: []string{
				"Projected efficiency weak",
				"Positive risk/reward profile",
			},
		},
		{
			name:     "fallback for a bare hold",
			decision: domain.NewPositionDecision("Y", "MISC", domain.ActionHold, "", 62),
			want: []string{
				"Position vitals acceptable",
				"Action HOLD based on current position state",
			},
		},
		{
			name:     "candidate fallback",
			decision: domain.NewCandidateDecision("Z", "MISC", domain.ActionIgnore, "", 20),
			want: []string{
				"Projected efficiency critically low",
				"Action IGNORE based on market assessment",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExplainDecision(tt.decision, tt.portfolio, tt.risk)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplainDecision_Flags(t *testing.T) {
	stale := domain.NewPositionDecision("T", "TELECOM", domain.ActionReview, "", 52)
	stale.Flags = []string{domain.FlagStagnant}
	assert.Contains(t, ExplainDecision(stale, PortfolioSignals{}, RiskSignals{}), "Position stagnant for extended period")

	broken := domain.NewPositionDecision("BAD", "MISC", domain.ActionReduce, "", 0)
	broken.Flags = []string{domain.FlagDataError}
	reasons := ExplainDecision(broken, PortfolioSignals{}, RiskSignals{})
	assert.Contains(t, reasons, "Position data incomplete or invalid")
	assert.NotContains(t, reasons, "Risk mitigation required")
}

func TestExplainDecision_ReasonsAreDistinct(t *testing.T) {
	d := domain.NewPositionDecision("A", "TECH", domain.ActionReduce, "", 10)
	reasons := ExplainDecision(d, PortfolioSignals{HotSectors: []string{"TECH"}, ReallocationPressure: true},
		RiskSignals{BetterOpportunityExists: true, OpportunityConfidence: domain.OpportunityMedium})

	seen := map[string]bool{}
	for _, r := range reasons {
		assert.False(t, seen[r], r)
		seen[r] = true
	}
	assert.GreaterOrEqual(t, len(reasons), 2)
	assert.Equal(t, "Medium-confidence opportunity detected", reasons[1])
}

func TestEnrichDecisions_DoesNotMutateInput(t *testing.T) {
	in := []domain.Decision{domain.NewPositionDecision("A", "TECH", domain.ActionHold, "r", 55)}
	out := EnrichDecisions(in, PortfolioSignals{}, RiskSignals{})

	assert.Nil(t, in[0].Reasons)
	assert.Len(t, out[0].Reasons, 2)
	assert.Equal(t, domain.DecisionPosition, out[0].Type())
}
