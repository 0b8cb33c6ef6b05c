package server

import (
	"encoding/json"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/concentration"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/modules/safety"
)

// DecisionRequest is the body of POST /api/decisions
type DecisionRequest struct {
	Scenario         string             `json:"scenario"`
	Portfolio        PortfolioRequest   `json:"portfolio"`
	Positions        []PositionRequest  `json:"positions" validate:"max=500,dive"`
	SectorHeatmap    map[string]float64 `json:"sector_heatmap" validate:"dive,gte=0,lte=100"`
	Candidates       []CandidateRequest `json:"candidates" validate:"max=500,dive"`
	Market           MarketRequest      `json:"market"`
	ExecutionContext *ExecutionRequest  `json:"execution_context"`
}

// PortfolioRequest is the capital picture of a request
type PortfolioRequest struct {
	TotalCapital  float64 `json:"total_capital" validate:"gte=0"`
	Cash          float64 `json:"cash" validate:"gte=0"`
	RiskTolerance string  `json:"risk_tolerance" default:"moderate" validate:"oneof=conservative moderate aggressive"`
}

// PositionRequest is one held position. Price sanity is left to the vitals scorer.
type PositionRequest struct {
	Symbol           string  `json:"symbol" validate:"required"`
	Sector           string  `json:"sector"`
	EntryPrice       float64 `json:"entry_price"`
	CurrentPrice     float64 `json:"current_price"`
	ATR              float64 `json:"atr" validate:"gte=0"`
	DaysHeld         int     `json:"days_held" validate:"gte=0"`
	CapitalAllocated float64 `json:"capital_allocated" validate:"gte=0"`
}

// CandidateRequest is one external candidate
type CandidateRequest struct {
	Symbol              string  `json:"symbol" validate:"required"`
	Sector              string  `json:"sector"`
	ProjectedEfficiency float64 `json:"projected_efficiency" validate:"gte=0,lte=100"`
}

// MarketRequest carries raw market inputs and optional signal overrides
type MarketRequest struct {
	Candles     []domain.Candle  `json:"candles" validate:"max=1000"`
	Headlines   []string         `json:"headlines" validate:"max=200"`
	BaselineATR *float64         `json:"baseline_atr" validate:"omitempty,gte=0"`
	Overrides   OverridesRequest `json:"overrides"`
}

// OverridesRequest pins individual market signals
type OverridesRequest struct {
	VolatilityState  *string  `json:"volatility_state" validate:"omitempty,oneof=EXPANDING STABLE CONTRACTING"`
	NewsScore        *float64 `json:"news_score" validate:"omitempty,gte=0,lte=100"`
	SectorConfidence *int     `json:"sector_confidence" validate:"omitempty,gte=0,lte=100"`
}

// ExecutionRequest overrides the execution context. Omitted fields take defaults.
type ExecutionRequest struct {
	SystemMode         string   `json:"system_mode" default:"DEMO" validate:"oneof=LIVE DEMO VALIDATION"`
	MarketStatus       string   `json:"market_status" default:"CLOSED" validate:"oneof=OPEN CLOSED"`
	DataFeedMode       string   `json:"data_feed_mode" default:"DEMO"`
	DataCapability     string   `json:"data_capability" default:"Synthetic/Mock Data"`
	MinimumReserve     *float64 `json:"minimum_reserve" default:"50000" validate:"gte=0"`
	IncludeSuperiority *bool    `json:"include_superiority" default:"true"`
}

// GuardrailRequest is the body of POST /api/guardrails. A null or empty context blocks everything.
type GuardrailRequest struct {
	Decisions []domain.Decision   `json:"decisions" validate:"max=1000"`
	Context   *RiskContextRequest `json:"context"`
}

// RiskContextRequest is the risk context of a guardrail request.
// Omitted cash counts as none; omitted reserve and volatility take the defaults.
type RiskContextRequest struct {
	Concentration   concentration.Warning `json:"concentration"`
	CashAvailable   float64               `json:"cash_available" validate:"gte=0"`
	MinimumReserve  *float64              `json:"minimum_reserve" default:"50000" validate:"gte=0"`
	VolatilityState string                `json:"volatility_state" default:"STABLE" validate:"oneof=EXPANDING STABLE CONTRACTING"`

	empty bool
}

// UnmarshalJSON remembers whether the context object carried any keys
func (c *RiskContextRequest) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	type plain RiskContextRequest
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	c.empty = len(keys) == 0
	return nil
}

// toRiskContext returns nil for a missing or empty context
func (req *GuardrailRequest) toRiskContext() *safety.RiskContext {
	c := req.Context
	if c == nil || c.empty {
		return nil
	}
	return &safety.RiskContext{
		Concentration:   c.Concentration,
		CashAvailable:   c.CashAvailable,
		MinimumReserve:  *c.MinimumReserve,
		VolatilityState: domain.VolatilityState(c.VolatilityState),
	}
}

// toCycleInput converts the request; exec is used when the request carries no context
func (req *DecisionRequest) toCycleInput(exec domain.ExecutionContext) decisions.CycleInput {
	in := decisions.CycleInput{
		Portfolio: domain.PortfolioState{
			TotalCapital:  req.Portfolio.TotalCapital,
			Cash:          req.Portfolio.Cash,
			RiskTolerance: req.Portfolio.RiskTolerance,
		},
		Heatmap: domain.SectorHeatmap(req.SectorHeatmap),
		Market: domain.MarketContext{
			Candles:     req.Market.Candles,
			Headlines:   req.Market.Headlines,
			BaselineATR: req.Market.BaselineATR,
			Overrides: domain.SignalOverrides{
				NewsScore:        req.Market.Overrides.NewsScore,
				SectorConfidence: req.Market.Overrides.SectorConfidence,
			},
		},
		Execution: &exec,
	}
	if vs := req.Market.Overrides.VolatilityState; vs != nil {
		in.Market.Overrides.VolatilityState = domain.VolatilityState(*vs).Ptr()
	}

	for _, p := range req.Positions {
		in.Positions = append(in.Positions, domain.Position{
			Symbol:           p.Symbol,
			Sector:           p.Sector,
			EntryPrice:       p.EntryPrice,
			CurrentPrice:     p.CurrentPrice,
			ATR:              p.ATR,
			DaysHeld:         p.DaysHeld,
			CapitalAllocated: p.CapitalAllocated,
		})
	}
	for _, c := range req.Candidates {
		in.Candidates = append(in.Candidates, domain.Candidate{
			Symbol:              c.Symbol,
			Sector:              c.Sector,
			ProjectedEfficiency: c.ProjectedEfficiency,
		})
	}

	if e := req.ExecutionContext; e != nil {
		in.Execution = &domain.ExecutionContext{
			SystemMode:         e.SystemMode,
			MarketStatus:       e.MarketStatus,
			DataFeedMode:       e.DataFeedMode,
			DataCapability:     e.DataCapability,
			MinimumReserve:     *e.MinimumReserve,
			IncludeSuperiority: *e.IncludeSuperiority,
		}
	}
	return in
}
