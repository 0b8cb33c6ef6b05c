package planning

import (
	"fmt"
	"sort"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/pkg/formulas"
)

// Vitals below which a defensive plan reduces instead of holding
const defensiveReduceBelow = 50.0

// ProposedAction is one planned step for a held position. Nothing is executed.
type ProposedAction struct {
	Symbol string        `json:"symbol"`
	Action domain.Action `json:"action"`
	Reason string        `json:"reason"`
}

// Plan is the ordered list of proposed actions, weakest position first
type Plan struct {
	ProposedActions []ProposedAction `json:"proposed_actions"`
}

// Summary condenses a cycle for dashboards
type Summary struct {
	Decision        domain.MarketPosture `json:"decision"`
	ActionsProposed int                  `json:"actions_proposed"`
	ActionsBlocked  int                  `json:"actions_blocked"`
	FinalMode       domain.RiskLevel     `json:"final_mode"`
}

// GeneratePlan maps the posture onto every position, weakest vitals first.
// Ties keep input order.
func GeneratePlan(posture domain.MarketPosture, positions []domain.AnalyzedPosition) Plan {
	sorted := append([]domain.AnalyzedPosition(nil), positions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VitalsScore < sorted[j].VitalsScore
	})

	plan := Plan{ProposedActions: make([]ProposedAction, 0, len(sorted))}
	for _, p := range sorted {
		vitals := formulas.FormatDecimal(p.VitalsScore)
		step := ProposedAction{Symbol: p.Symbol, Action: domain.ActionMonitor, Reason: "Standard monitoring."}

		switch posture {
		case domain.PostureRiskOff:
			step.Action = domain.ActionExit
			step.Reason = fmt.Sprintf("RISK_OFF trigger. Exiting all positions (Vitals: %s).", vitals)
		case domain.PostureDefensive:
			if p.VitalsScore < defensiveReduceBelow {
				step.Action = domain.ActionReduce
				step.Reason = fmt.Sprintf("Defensive mode + Weak vitals (%s). reducing exposure.", vitals)
			} else {
				step.Action = domain.ActionHold
				step.Reason = fmt.Sprintf("Defensive mode. Holding strong position (%s).", vitals)
			}
		case domain.PostureOpportunity:
			step.Reason = "Opportunity mode. No forced exits."
		}

		plan.ProposedActions = append(plan.ProposedActions, step)
	}
	return plan
}

// PlanReport builds the plan for a finished cycle. A cycle whose decisions
// were all vetoed gets an empty plan.
func PlanReport(report decisions.DecisionReport) Plan {
	if len(report.Decisions) == 0 {
		return Plan{ProposedActions: []ProposedAction{}}
	}
	return GeneratePlan(report.MarketPosture.Posture, report.Positions)
}

// Summarize reports the posture, allowed and blocked counts and the risk level
func Summarize(report decisions.DecisionReport) Summary {
	return Summary{
		Decision:        report.MarketPosture.Posture,
		ActionsProposed: len(report.Decisions),
		ActionsBlocked:  len(report.BlockedBySafety),
		FinalMode:       report.MarketPosture.RiskLevel,
	}
}
