// Package superiority ranks allowed decisions to surface the one that matters most.
// It is a presentation layer: nothing here changes a decision.
package superiority

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

const (
	maxAlternatives     = 3
	defaultTrials       = 100
	perturbationPct     = 0.10
	defaultActionWeight = 25
)

// actionWeights orders actions by urgency. Capital protection outranks deployment,
// deployment outranks passive holds.
var actionWeights = map[domain.Action]int{
	domain.ActionFreeCapital:      100,
	domain.ActionReduceRisk:       95,
	domain.ActionReduceAggressive: 90,
	domain.ActionTrimRisk:         85,
	domain.ActionReduce:           80,
	domain.ActionAllocateHigh:     75,
	domain.ActionAllocate:         70,
	domain.ActionAllocateCapped:   65,
	domain.ActionAllocateCautious: 60,
	domain.ActionReview:           50,
	domain.ActionHoldCapped:       45,
	domain.ActionWatchlist:        40,
	domain.ActionHold:             35,
	domain.ActionMaintain:         30,
	domain.ActionBlockRisk:        20,
	domain.ActionBlockPosture:     15,
	domain.ActionIgnore:           10,
}

// Weight returns the urgency weight of an action
func Weight(action domain.Action) int {
	if w, ok := actionWeights[action]; ok {
		return w
	}
	return defaultActionWeight
}

// Analysis is the ranked view of a cycle's allowed decisions
type Analysis struct {
	Primary      domain.Decision      `json:"primary_decision" msgpack:"primary_decision"`
	Alternatives []domain.Decision    `json:"alternatives" msgpack:"alternatives"`
	Confidence   float64              `json:"confidence" msgpack:"confidence"`
	Posture      domain.MarketPosture `json:"market_posture" msgpack:"market_posture"`
	Rationale    string               `json:"rationale" msgpack:"rationale"`
}

// Counterfactual reports how robust the primary decision is to noisy scores
type Counterfactual struct {
	Trials          int     `json:"trials" msgpack:"trials"`
	Stability       float64 `json:"stability" msgpack:"stability"`
	TopChallenger   string  `json:"top_challenger,omitempty" msgpack:"top_challenger,omitempty"`
	ChallengerWins  int     `json:"challenger_wins" msgpack:"challenger_wins"`
	PrimaryRetained int     `json:"primary_retained" msgpack:"primary_retained"`
}

type ranked struct {
	decision domain.Decision
	weight   int
	score    float64
}

func rank(entries []ranked) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.weight != b.weight {
			return a.weight > b.weight
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.decision.Target < b.decision.Target
	})
}

// Analyze ranks decisions by action weight, then score, then target.
// Returns nil when there is nothing to rank.
func Analyze(allowed []domain.Decision, posture domain.MarketPosture) *Analysis {
	if len(allowed) == 0 {
		return nil
	}

	entries := make([]ranked, len(allowed))
	for i, d := range allowed {
		entries[i] = ranked{decision: d.Clone(), weight: Weight(d.Action), score: d.Score}
	}
	rank(entries)

	analysis := &Analysis{
		Primary:      entries[0].decision,
		Alternatives: []domain.Decision{},
		Confidence:   1.0,
		Posture:      posture,
	}

	others := entries[1:]
	if len(others) > maxAlternatives {
		others = others[:maxAlternatives]
	}
	if len(others) > 0 {
		weights := make([]float64, len(others))
		for i, e := range others {
			analysis.Alternatives = append(analysis.Alternatives, e.decision)
			weights[i] = float64(e.weight)
		}
		top := float64(entries[0].weight)
		confidence := 0.5 + 0.5*(top-formulas.Mean(weights))/top
		analysis.Confidence = formulas.Round(formulas.Clamp(confidence, 0.5, 1.0), 2)
	}

	analysis.Rationale = rationale(analysis)
	return analysis
}

func rationale(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s ranks first under %s posture (score %s).",
		a.Primary.Action, a.Primary.Target, a.Posture, formulas.FormatDecimal(a.Primary.Score))
	if len(a.Alternatives) > 0 {
		names := make([]string, len(a.Alternatives))
		for i, alt := range a.Alternatives {
			names[i] = fmt.Sprintf("%s %s", alt.Action, alt.Target)
		}
		fmt.Fprintf(&b, " Alternatives: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

// SimulateCounterfactual perturbs every ranked score by up to ±10% and re-ranks.
// Randomness comes only from rng, so a fixed seed replays exactly.
// Returns nil without an analysis or an rng.
func SimulateCounterfactual(analysis *Analysis, rng *rand.Rand, trials int) *Counterfactual {
	if analysis == nil || rng == nil {
		return nil
	}
	if trials <= 0 {
		trials = defaultTrials
	}

	pool := append([]domain.Decision{analysis.Primary}, analysis.Alternatives...)
	entries := make([]ranked, len(pool))

	retained := 0
	challengers := map[string]int{}
	for t := 0; t < trials; t++ {
		for i, d := range pool {
			noise := 1 + (rng.Float64()*2-1)*perturbationPct
			entries[i] = ranked{decision: d, weight: Weight(d.Action), score: d.Score * noise}
		}
		rank(entries)

		winner := entries[0].decision.Target
		if winner == analysis.Primary.Target {
			retained++
			continue
		}
		challengers[winner]++
	}

	result := &Counterfactual{
		Trials:          trials,
		Stability:       formulas.Round(float64(retained)/float64(trials), 2),
		PrimaryRetained: retained,
	}

	names := make([]string, 0, len(challengers))
	for name := range challengers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if challengers[name] > result.ChallengerWins {
			result.TopChallenger = name
			result.ChallengerWins = challengers[name]
		}
	}
	return result
}
