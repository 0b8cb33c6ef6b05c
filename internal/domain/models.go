// Package domain provides core domain models and types.
package domain

import (
	"math"
	"strings"
)

// UnknownSector is the bucket for positions and candidates without a sector label
const UnknownSector = "UNKNOWN"

// NeutralHeat is the heat assumed for sectors missing from the heatmap
const NeutralHeat = 50.0

// NormalizeSector trims and upper-cases a sector label; blank becomes UNKNOWN
func NormalizeSector(sector string) string {
	s := strings.ToUpper(strings.TrimSpace(sector))
	if s == "" {
		return UnknownSector
	}
	return s
}

// Position represents a held position as supplied by the data source
type Position struct {
	Symbol           string  `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Sector           string  `json:"sector" yaml:"sector" msgpack:"sector"`
	EntryPrice       float64 `json:"entry_price" yaml:"entry_price" msgpack:"entry_price"`
	CurrentPrice     float64 `json:"current_price" yaml:"current_price" msgpack:"current_price"`
	ATR              float64 `json:"atr" yaml:"atr" msgpack:"atr"`
	DaysHeld         int     `json:"days_held" yaml:"days_held" msgpack:"days_held"`
	CapitalAllocated float64 `json:"capital_allocated" yaml:"capital_allocated" msgpack:"capital_allocated"`
}

// Normalized returns a copy with the sector label normalized
func (p Position) Normalized() Position {
	p.Sector = NormalizeSector(p.Sector)
	return p
}

// Sanitized returns a copy with every non-finite number replaced by 0
func (p Position) Sanitized() Position {
	p.EntryPrice = finiteOrZero(p.EntryPrice)
	p.CurrentPrice = finiteOrZero(p.CurrentPrice)
	p.ATR = finiteOrZero(p.ATR)
	p.CapitalAllocated = finiteOrZero(p.CapitalAllocated)
	return p
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// VitalsDrivers are the intermediate values behind a vitals score
type VitalsDrivers struct {
	PnLPct            float64 `json:"pnl_pct" msgpack:"pnl_pct"`
	VolAdjReturn      float64 `json:"vol_adj_return" msgpack:"vol_adj_return"`
	TimePenalty       float64 `json:"time_penalty" msgpack:"time_penalty"`
	CapitalEfficiency float64 `json:"capital_efficiency" msgpack:"capital_efficiency"`
	RawEfficiency     float64 `json:"raw_efficiency" msgpack:"raw_efficiency"`
}

// AnalyzedPosition is a Position enriched with its vitals assessment
type AnalyzedPosition struct {
	Position
	VitalsScore     float64       `json:"vitals_score" msgpack:"vitals_score"`
	Health          HealthStatus  `json:"health" msgpack:"health"`
	SuggestedAction string        `json:"suggested_action" msgpack:"suggested_action"`
	Drivers         VitalsDrivers `json:"drivers" msgpack:"drivers"`
	Flags           []string      `json:"flags" msgpack:"flags"`
}

// HasFlag reports whether the position carries the given flag
func (p AnalyzedPosition) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Candidate is a prospective trade that is not yet owned
type Candidate struct {
	Symbol              string  `json:"symbol" yaml:"symbol" msgpack:"symbol"`
	Sector              string  `json:"sector" yaml:"sector" msgpack:"sector"`
	ProjectedEfficiency float64 `json:"projected_efficiency" yaml:"projected_efficiency" msgpack:"projected_efficiency"`
}

// Normalized returns a copy with the sector label normalized
func (c Candidate) Normalized() Candidate {
	c.Sector = NormalizeSector(c.Sector)
	c.ProjectedEfficiency = finiteOrZero(c.ProjectedEfficiency)
	return c
}

// PortfolioState is the read-only capital picture for one cycle
type PortfolioState struct {
	TotalCapital  float64 `json:"total_capital" yaml:"total_capital" msgpack:"total_capital"`
	Cash          float64 `json:"cash" yaml:"cash" msgpack:"cash"`
	RiskTolerance string  `json:"risk_tolerance" yaml:"risk_tolerance" msgpack:"risk_tolerance"`
}

// Normalized returns a copy with non-finite capital and cash read as 0
func (s PortfolioState) Normalized() PortfolioState {
	s.TotalCapital = finiteOrZero(s.TotalCapital)
	s.Cash = finiteOrZero(s.Cash)
	return s
}

// SectorHeatmap maps a sector to its heat score (0-100)
type SectorHeatmap map[string]float64

// Heat returns the heat for a sector, or NeutralHeat when it is not mapped
func (h SectorHeatmap) Heat(sector string) float64 {
	if v, ok := h[sector]; ok {
		return v
	}
	return NeutralHeat
}

// Normalized returns a copy keyed by normalized sector labels.
// Colliding labels keep the hottest value; non-finite heat is dropped.
func (h SectorHeatmap) Normalized() SectorHeatmap {
	out := make(SectorHeatmap, len(h))
	for sector, heat := range h {
		if math.IsNaN(heat) || math.IsInf(heat, 0) {
			continue
		}
		key := NormalizeSector(sector)
		if existing, ok := out[key]; ok && existing >= heat {
			continue
		}
		out[key] = heat
	}
	return out
}

// Candle is one OHLCV bar; Timestamp is ISO-8601 so lexical order is time order
type Candle struct {
	Timestamp string  `json:"timestamp" yaml:"timestamp" msgpack:"timestamp"`
	Open      float64 `json:"open" yaml:"open" msgpack:"open"`
	High      float64 `json:"high" yaml:"high" msgpack:"high"`
	Low       float64 `json:"low" yaml:"low" msgpack:"low"`
	Close     float64 `json:"close" yaml:"close" msgpack:"close"`
	Volume    float64 `json:"volume" yaml:"volume" msgpack:"volume"`
}

// SignalOverrides replace individual derived market signals. Nil fields are derived.
type SignalOverrides struct {
	VolatilityState  *VolatilityState `json:"volatility_state,omitempty" yaml:"volatility_state,omitempty" msgpack:"volatility_state,omitempty"`
	NewsScore        *float64         `json:"news_score,omitempty" yaml:"news_score,omitempty" msgpack:"news_score,omitempty"`
	SectorConfidence *int             `json:"sector_confidence,omitempty" yaml:"sector_confidence,omitempty" msgpack:"sector_confidence,omitempty"`
}

// IsEmpty reports whether no signal is overridden
func (o SignalOverrides) IsEmpty() bool {
	return o.VolatilityState == nil && o.NewsScore == nil && o.SectorConfidence == nil
}

// MarketContext carries the raw market inputs for one cycle.
// A nil BaselineATR compares the current ATR with itself, which reads as STABLE.
type MarketContext struct {
	Candles     []Candle        `json:"candles" yaml:"candles" msgpack:"candles"`
	Headlines   []string        `json:"headlines" yaml:"headlines" msgpack:"headlines"`
	BaselineATR *float64        `json:"baseline_atr,omitempty" yaml:"baseline_atr,omitempty" msgpack:"baseline_atr,omitempty"`
	Overrides   SignalOverrides `json:"overrides" yaml:"overrides" msgpack:"overrides"`
}

// HealthSummary counts positions per health band
type HealthSummary struct {
	Healthy   int `json:"healthy" msgpack:"healthy"`
	Weak      int `json:"weak" msgpack:"weak"`
	Unhealthy int `json:"unhealthy" msgpack:"unhealthy"`
}
