// Package safety is the final gate between proposed decisions and execution.
// It only filters; it never rewrites an action.
package safety

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/concentration"
	"github.com/aristath/vitals/pkg/formulas"
)

// Guard names reported on blocked decisions
const (
	GuardConcentration = "CONCENTRATION_GUARD"
	GuardCashReserve   = "CASH_RESERVE_GUARD"
	GuardVolatility    = "VOLATILITY_GUARD"
	GuardContext       = "CONTEXT_GUARD"
)

// Block reasons
const (
	ReasonConcentrationBreach = "Sector concentration breach"
	ReasonInsufficientCash    = "Insufficient cash reserve"
	ReasonVolatileAggression  = "Aggressive action blocked during expanding volatility"
	ReasonMissingContext      = "Safety check failed: missing risk context"
	ReasonInvalidContext      = "Safety check failed: invalid risk context"
)

type actionSet map[domain.Action]struct{}

func newActionSet(actions ...domain.Action) actionSet {
	s := make(actionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

func (s actionSet) has(a domain.Action) bool {
	_, ok := s[a]
	return ok
}

var (
	increasingActions = newActionSet(
		domain.ActionAllocate, domain.ActionAllocateHigh, domain.ActionAllocateAggressive,
		domain.ActionScaleUp, domain.ActionDoubleDown, domain.ActionAddPosition,
	)
	aggressiveAllocations = newActionSet(
		domain.ActionAllocateHigh, domain.ActionAllocateAggressive, domain.ActionScaleUp,
	)
	capitalActions = newActionSet(
		domain.ActionAllocate, domain.ActionAllocateHigh, domain.ActionAllocateAggressive,
		domain.ActionAllocateCapped, domain.ActionAllocateCautious,
		domain.ActionScaleUp, domain.ActionAddPosition, domain.ActionDoubleDown,
	)
	aggressiveActions = newActionSet(
		domain.ActionAllocateAggressive, domain.ActionScaleUp, domain.ActionDoubleDown,
	)
)

// RiskContext carries the precomputed signals the guards check against
type RiskContext struct {
	Concentration   concentration.Warning  `json:"concentration"`
	CashAvailable   float64                `json:"cash_available"`
	MinimumReserve  float64                `json:"minimum_reserve"`
	VolatilityState domain.VolatilityState `json:"volatility_state"`
}

// Validate rejects contexts the guards cannot reason about
func (c *RiskContext) Validate() error {
	if !formulas.IsFinite(c.CashAvailable, c.MinimumReserve) {
		return errors.New("cash and reserve must be finite")
	}
	if c.CashAvailable < 0 {
		return fmt.Errorf("cash available cannot be negative: %v", c.CashAvailable)
	}
	if c.MinimumReserve < 0 {
		return fmt.Errorf("minimum reserve cannot be negative: %v", c.MinimumReserve)
	}
	return nil
}

// GuardrailResult partitions the input decisions
type GuardrailResult struct {
	Allowed []domain.Decision `json:"allowed_actions" msgpack:"allowed_actions"`
	Blocked []domain.Decision `json:"blocked_actions" msgpack:"blocked_actions"`
}

// ApplyRiskGuardrails splits decisions into allowed and blocked. Every input
// lands in exactly one side. When several rules match, the last one checked
// supplies the reason. A missing or invalid context blocks everything.
func ApplyRiskGuardrails(decisions []domain.Decision, ctx *RiskContext) GuardrailResult {
	result := GuardrailResult{
		Allowed: []domain.Decision{},
		Blocked: []domain.Decision{},
	}
	if len(decisions) == 0 {
		return result
	}

	if ctx == nil {
		return blockAll(decisions, ReasonMissingContext)
	}
	if err := ctx.Validate(); err != nil {
		return blockAll(decisions, ReasonInvalidContext)
	}

	for _, d := range decisions {
		reason, guard := evaluate(d, ctx)
		if reason == "" {
			result.Allowed = append(result.Allowed, d.Clone())
			continue
		}
		result.Blocked = append(result.Blocked, d.Blocked(reason, guard))
	}
	return result
}

func evaluate(d domain.Decision, ctx *RiskContext) (string, string) {
	var reason, guard string
	warning := ctx.Concentration

	if warning.IsBreachedSector(d.Sector) && increasingActions.has(d.Action) {
		reason, guard = ReasonConcentrationBreach, GuardConcentration
	}
	if warning.IsApproachingSector(d.Sector) && aggressiveAllocations.has(d.Action) {
		reason, guard = ReasonConcentrationBreach, GuardConcentration
	}
	if ctx.CashAvailable < ctx.MinimumReserve && capitalActions.has(d.Action) {
		reason, guard = ReasonInsufficientCash, GuardCashReserve
	}
	if ctx.VolatilityState == domain.VolatilityExpanding && aggressiveActions.has(d.Action) {
		reason, guard = ReasonVolatileAggression, GuardVolatility
	}
	return reason, guard
}

func blockAll(decisions []domain.Decision, reason string) GuardrailResult {
	result := GuardrailResult{
		Allowed: []domain.Decision{},
		Blocked: make([]domain.Decision, 0, len(decisions)),
	}
	for _, d := range decisions {
		result.Blocked = append(result.Blocked, d.Blocked(reason, GuardContext))
	}
	return result
}

// SummarizeGuardrailResults renders a one-line digest of the partition,
// grouping blocked targets by reason in first-seen order.
func SummarizeGuardrailResults(result GuardrailResult) string {
	if len(result.Blocked) == 0 {
		return fmt.Sprintf("All %d actions passed safety checks.", len(result.Allowed))
	}

	var order []string
	targets := map[string][]string{}
	for _, d := range result.Blocked {
		reason := d.SafetyReason
		if reason == "" {
			reason = "Unknown"
		}
		if _, seen := targets[reason]; !seen {
			order = append(order, reason)
		}
		target := d.Target
		if target == "" {
			target = "N/A"
		}
		targets[reason] = append(targets[reason], target)
	}

	parts := []string{fmt.Sprintf("Safety: %d allowed, %d blocked.", len(result.Allowed), len(result.Blocked))}
	for _, reason := range order {
		parts = append(parts, fmt.Sprintf("  - %s: %s", reason, strings.Join(targets[reason], ", ")))
	}
	return strings.Join(parts, " ")
}
