package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/market_regime"
	"github.com/aristath/vitals/internal/modules/decisions"
)

func analyzed(symbol string, vitals float64) domain.AnalyzedPosition {
	return domain.AnalyzedPosition{Position: domain.Position{Symbol: symbol}, VitalsScore: vitals}
}

func TestGeneratePlan(t *testing.T) {
	positions := []domain.AnalyzedPosition{
		analyzed("STRONG_TECH", 85),
		analyzed("WEAK_RETAIL", 30),
		analyzed("MID_FINANCE", 60),
	}

	tests := []struct {
		posture domain.MarketPosture
		want    []ProposedAction
	}{
		{
			posture: domain.PostureDefensive,
			want: []ProposedAction{
				{"WEAK_RETAIL", domain.ActionReduce, "Defensive mode + Weak vitals (30.0). reducing exposure."},
				{"MID_FINANCE", domain.ActionHold, "Defensive mode. Holding strong position (60.0)."},
				{"STRONG_TECH", domain.ActionHold, "Defensive mode. Holding strong position (85.0)."},
			},
		},
		{
			posture: domain.PostureRiskOff,
			want: []ProposedAction{
				{"WEAK_RETAIL", domain.ActionExit, "RISK_OFF trigger. Exiting all positions (Vitals: 30.0)."},
				{"MID_FINANCE", domain.ActionExit, "RISK_OFF trigger. Exiting all positions (Vitals: 60.0)."},
				{"STRONG_TECH", domain.ActionExit, "RISK_OFF trigger. Exiting all positions (Vitals: 85.0)."},
			},
		},
		{
			posture: domain.PostureOpportunity,
			want: []ProposedAction{
				{"WEAK_RETAIL", domain.ActionMonitor, "Opportunity mode. No forced exits."},
				{"MID_FINANCE", domain.ActionMonitor, "Opportunity mode. No forced exits."},
				{"STRONG_TECH", domain.ActionMonitor, "Opportunity mode. No forced exits."},
			},
		},
		{
			posture: domain.PostureNeutral,
			want: []ProposedAction{
				{"WEAK_RETAIL", domain.ActionMonitor, "Standard monitoring."},
				{"MID_FINANCE", domain.ActionMonitor, "Standard monitoring."},
				{"STRONG_TECH", domain.ActionMonitor, "Standard monitoring."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.posture), func(t *testing.T) {
			plan := GeneratePlan(tt.posture, positions)
			assert.Equal(t, tt.want, plan.ProposedActions)
		})
	}

	// input order untouched
	assert.Equal(t, "STRONG_TECH", positions[0].Symbol)
}

func TestGeneratePlan_StableTies(t *testing.T) {
	plan := GeneratePlan(domain.PostureNeutral, []domain.AnalyzedPosition{
		analyzed("B", 50), analyzed("A", 50), analyzed("C", 10),
	})
	symbols := []string{}
	for _, a := range plan.ProposedActions {
		symbols = append(symbols, a.Symbol)
	}
	assert.Equal(t, []string{"C", "B", "A"}, symbols)
}

func TestPlanReportAndSummary(t *testing.T) {
	report := decisions.DecisionReport{
		MarketPosture: market_regime.PostureReport{Posture: domain.PostureDefensive, RiskLevel: domain.RiskHigh},
		Positions:     []domain.AnalyzedPosition{analyzed("X", 20)},
		BlockedBySafety: []domain.Decision{
			domain.NewCandidateDecision("Y", "TECH", domain.ActionAllocate, "", 70),
		},
	}

	assert.Empty(t, PlanReport(report).ProposedActions)

	report.Decisions = []domain.Decision{domain.NewPositionDecision("X", "TECH", domain.ActionReduce, "", 20)}
	plan := PlanReport(report)
	assert.Equal(t, []ProposedAction{{"X", domain.ActionReduce, "Defensive mode + Weak vitals (20.0). reducing exposure."}}, plan.ProposedActions)

	assert.Equal(t, Summary{
		Decision:        domain.PostureDefensive,
		ActionsProposed: 1,
		ActionsBlocked:  1,
		FinalMode:       domain.RiskHigh,
	}, Summarize(report))
}
