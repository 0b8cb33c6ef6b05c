package signals

import (
	"math"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

// Volatility adjustments applied to the news score
const (
	expandingPenalty    = -20.0
	contractingBonus    = 10.0
	unknownStatePenalty = -10.0
)

// ComputeSectorConfidence combines the volatility regime with the news score.
// Unrecognized states are treated as risk.
func ComputeSectorConfidence(state domain.VolatilityState, newsScore float64) int {
	if math.IsNaN(newsScore) {
		newsScore = neutralNewsScore
	}

	adjustment := unknownStatePenalty
	switch state {
	case domain.VolatilityExpanding:
		adjustment = expandingPenalty
	case domain.VolatilityContracting:
		adjustment = contractingBonus
	case domain.VolatilityStable:
		adjustment = 0
	}

	return int(formulas.Clamp(newsScore+adjustment, 0, 100))
}
