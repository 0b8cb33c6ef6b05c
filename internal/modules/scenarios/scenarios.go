// Package scenarios holds canned behavioral demos. Each scenario swaps in its
// own holdings and pins the market signals so one specific behavior shows.
package scenarios

import (
	"errors"
	"sort"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
)

// ErrUnknownScenario is returned for an id that is not registered
var ErrUnknownScenario = errors.New("unknown scenario")

// NoScenario is accepted by callers as "run on the adapter's own data"
const NoScenario = "NORMAL"

// Scenario is one behavioral demo
type Scenario struct {
	ID               string                 `json:"id"`
	Label            string                 `json:"label"`
	Description      string                 `json:"description"`
	Badges           []string               `json:"badges"`
	VolatilityState  domain.VolatilityState `json:"volatility_state"`
	NewsScore        float64                `json:"news_score"`
	SectorConfidence int                    `json:"sector_confidence"`
	Positions        []domain.Position      `json:"positions"`
	Candidates       []domain.Candidate     `json:"candidates"`
}

var registry = map[string]Scenario{
	"crash_reflex": {
		ID:               "crash_reflex",
		Label:            "The Crash Reflex",
		Description:      "Rapid volatility spike forces capital preservation",
		Badges:           []string{"Safety Dominance", "Volatility Override", "Capital Preservation"},
		VolatilityState:  domain.VolatilityExpanding,
		NewsScore:        85,
		SectorConfidence: 30,
		Positions: []domain.Position{
			{Symbol: "NVDA", Sector: "TECH", EntryPrice: 400, CurrentPrice: 580, ATR: 15, DaysHeld: 20, CapitalAllocated: 150_000},
			{Symbol: "AMD", Sector: "TECH", EntryPrice: 140, CurrentPrice: 123, ATR: 5, DaysHeld: 10, CapitalAllocated: 100_000},
		},
		Candidates: []domain.Candidate{
			{Symbol: "TSLA", Sector: "TECH", ProjectedEfficiency: 95},
		},
	},
	"concentration_guard": {
		ID:               "concentration_guard",
		Label:            "The Concentration Guard",
		Description:      "Refuses perfect trade due to risk exposure limits",
		Badges:           []string{"Refusal is Intelligence", "Structural Limits", "Safety > Profit"},
		VolatilityState:  domain.VolatilityContracting,
		NewsScore:        75,
		SectorConfidence: 80,
		Positions: []domain.Position{
			{Symbol: "GOOGL", Sector: "TECH", EntryPrice: 100, CurrentPrice: 110, ATR: 2, DaysHeld: 10, CapitalAllocated: 250_000},
			{Symbol: "MSFT", Sector: "TECH", EntryPrice: 300, CurrentPrice: 310, ATR: 5, DaysHeld: 10, CapitalAllocated: 250_000},
			{Symbol: "NVDA", Sector: "TECH", EntryPrice: 400, CurrentPrice: 450, ATR: 8, DaysHeld: 10, CapitalAllocated: 250_000},
		},
		Candidates: []domain.Candidate{
			{Symbol: "AAPL", Sector: "TECH", ProjectedEfficiency: 99},
		},
	},
	"disciplined_observer": {
		ID:               "disciplined_observer",
		Label:            "The Disciplined Observer",
		Description:      "Recognizes market noise and chooses inaction",
		Badges:           []string{"Inaction is Decision", "Noise Filtering", "Patience"},
		VolatilityState:  domain.VolatilityStable,
		NewsScore:        50,
		SectorConfidence: 45,
		Positions: []domain.Position{
			{Symbol: "JPM", Sector: "FINANCE", EntryPrice: 150, CurrentPrice: 153, ATR: 2, DaysHeld: 30, CapitalAllocated: 200_000},
		},
		Candidates: []domain.Candidate{
			{Symbol: "COIN", Sector: "FINANCE", ProjectedEfficiency: 62},
			{Symbol: "XOM", Sector: "ENERGY", ProjectedEfficiency: 58},
		},
	},
	"dead_capital": {
		ID:               "dead_capital",
		Label:            "The Dead Capital Rotator",
		Description:      "Identifies stagnant money and redeploys it",
		Badges:           []string{"Capital Efficiency", "Opportunity Cost", "Active Management"},
		VolatilityState:  domain.VolatilityContracting,
		NewsScore:        60,
		SectorConfidence: 75,
		Positions: []domain.Position{
			{Symbol: "T", Sector: "TELECOM", EntryPrice: 20, CurrentPrice: 20.1, ATR: 0.2, DaysHeld: 60, CapitalAllocated: 100_000},
		},
		Candidates: []domain.Candidate{
			{Symbol: "LILLY", Sector: "HEALTH", ProjectedEfficiency: 88},
		},
	},
	"greedy_trap": {
		ID:               "greedy_trap",
		Label:            "The Greedy Trap",
		Description:      "High news sentiment vs. Expanding volatility",
		Badges:           []string{"Skepticism", "Signal Conflict", "Anti-FOMO"},
		VolatilityState:  domain.VolatilityExpanding,
		NewsScore:        90,
		SectorConfidence: 40,
		Positions:        []domain.Position{},
		Candidates: []domain.Candidate{
			{Symbol: "MEME", Sector: "TECH", ProjectedEfficiency: 85},
		},
	},
}

// List returns every scenario ordered by id
func List() []Scenario {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Scenario, len(ids))
	for i, id := range ids {
		out[i] = registry[id].clone()
	}
	return out
}

// Get returns the scenario with the given id
func Get(id string) (Scenario, error) {
	s, ok := registry[id]
	if !ok {
		return Scenario{}, ErrUnknownScenario
	}
	return s.clone(), nil
}

// IsNone reports whether id asks for no scenario at all
func IsNone(id string) bool {
	return id == "" || id == NoScenario
}

// Apply replaces holdings and candidates and pins the three market signals.
// Portfolio, heatmap, candles and headlines are kept from in.
func (s Scenario) Apply(in decisions.CycleInput) decisions.CycleInput {
	out := in
	out.Scenario = s.ID
	out.Positions = append([]domain.Position{}, s.Positions...)
	out.Candidates = append([]domain.Candidate{}, s.Candidates...)

	news := s.NewsScore
	confidence := s.SectorConfidence
	out.Market.Overrides = domain.SignalOverrides{
		VolatilityState:  s.VolatilityState.Ptr(),
		NewsScore:        &news,
		SectorConfidence: &confidence,
	}
	return out
}

func (s Scenario) clone() Scenario {
	c := s
	c.Badges = append([]string(nil), s.Badges...)
	c.Positions = append([]domain.Position{}, s.Positions...)
	c.Candidates = append([]domain.Candidate{}, s.Candidates...)
	return c
}
