// Package signals derives market signals from candles and headlines.
package signals

import (
	"sort"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/pkg/formulas"
)

// DefaultATRPeriod is the lookback used when the caller does not choose one
const DefaultATRPeriod = 14

// DefaultVolatilityThresholdPct is the ATR change that counts as a regime shift
const DefaultVolatilityThresholdPct = 10.0

// ATRResult holds the average true range; ATR is nil when there is not enough data
type ATRResult struct {
	ATR *float64 `json:"atr" msgpack:"atr"`
}

// VolatilityReport is the classified volatility regime
type VolatilityReport struct {
	State     domain.VolatilityState `json:"volatility_state" msgpack:"volatility_state"`
	PctChange float64                `json:"pct_change" msgpack:"pct_change"`
}

// ComputeATR computes the simple average true range over the last period bars.
// Candles are sorted by timestamp first; the caller's order is not trusted.
func ComputeATR(candles []domain.Candle, period int) ATRResult {
	if period < 1 || len(candles) < period+1 {
		return ATRResult{}
	}

	sorted := make([]domain.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	high := make([]float64, len(sorted))
	low := make([]float64, len(sorted))
	closes := make([]float64, len(sorted))
	for i, c := range sorted {
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
	}

	atr := formulas.AverageTrueRange(high, low, closes, period)
	if atr == nil {
		return ATRResult{}
	}
	rounded := formulas.Round(*atr, 4)
	return ATRResult{ATR: &rounded}
}

// ClassifyVolatilityState compares the current ATR against a baseline.
// A non-positive baseline cannot be compared and reads as STABLE.
func ClassifyVolatilityState(currentATR, baselineATR, thresholdPct float64) VolatilityReport {
	if baselineATR <= 0 || !formulas.IsFinite(currentATR, baselineATR) {
		return VolatilityReport{State: domain.VolatilityStable}
	}

	pctChange := (currentATR - baselineATR) / baselineATR * 100

	state := domain.VolatilityStable
	switch {
	case pctChange > thresholdPct:
		state = domain.VolatilityExpanding
	case pctChange < -thresholdPct:
		state = domain.VolatilityContracting
	}

	return VolatilityReport{
		State:     state,
		PctChange: formulas.Round(pctChange, 2),
	}
}
