// Package broker provides read-only sources of portfolio and market inputs.
// Adapters never place orders.
package broker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
)

// ReferenceSymbol is the instrument whose candles drive the volatility regime
const ReferenceSymbol = "SPY"

// DefaultCandleLimit is how many recent candles a cycle asks for
const DefaultCandleLimit = 20

// Adapter is a read-only portfolio and market data source
type Adapter interface {
	Name() string
	Portfolio(ctx context.Context) (domain.PortfolioState, error)
	Positions(ctx context.Context) ([]domain.Position, error)
	Candidates(ctx context.Context) ([]domain.Candidate, error)
	SectorHeatmap(ctx context.Context) (domain.SectorHeatmap, error)
	Candles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error)
	Headlines(ctx context.Context) ([]string, error)
}

// Snapshot is one complete set of cycle inputs. It is also the YAML layout
// read by SnapshotAdapter.
type Snapshot struct {
	Portfolio     domain.PortfolioState `json:"portfolio" yaml:"portfolio"`
	Positions     []domain.Position     `json:"positions" yaml:"positions"`
	Candidates    []domain.Candidate    `json:"candidates" yaml:"candidates"`
	SectorHeatmap domain.SectorHeatmap  `json:"sector_heatmap" yaml:"sector_heatmap"`
	Candles       []domain.Candle       `json:"candles" yaml:"candles"`
	Headlines     []string              `json:"headlines" yaml:"headlines"`
}

// CycleInput turns the snapshot into decision engine input
func (s Snapshot) CycleInput(scenario string, exec domain.ExecutionContext) decisions.CycleInput {
	return decisions.CycleInput{
		Scenario:   scenario,
		Portfolio:  s.Portfolio,
		Positions:  s.Positions,
		Heatmap:    s.SectorHeatmap,
		Candidates: s.Candidates,
		Market: domain.MarketContext{
			Candles:   s.Candles,
			Headlines: s.Headlines,
		},
		Execution: &exec,
	}
}

// Collect gathers every input from the adapter. A failing call is logged and
// replaced by its empty value so one bad fetch cannot abort the cycle.
func Collect(ctx context.Context, adapter Adapter, log zerolog.Logger) Snapshot {
	log = log.With().Str("component", "collector").Str("adapter", adapter.Name()).Logger()

	var snap Snapshot
	var err error

	if snap.Portfolio, err = adapter.Portfolio(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch portfolio, using empty portfolio")
		snap.Portfolio = domain.PortfolioState{}
	}
	if snap.Positions, err = adapter.Positions(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch positions")
		snap.Positions = nil
	}
	if snap.Candidates, err = adapter.Candidates(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch candidates")
		snap.Candidates = nil
	}
	if snap.SectorHeatmap, err = adapter.SectorHeatmap(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch sector heatmap")
		snap.SectorHeatmap = domain.SectorHeatmap{}
	}
	if snap.Candles, err = adapter.Candles(ctx, ReferenceSymbol, DefaultCandleLimit); err != nil {
		log.Warn().Err(err).Str("symbol", ReferenceSymbol).Msg("Failed to fetch candles")
		snap.Candles = nil
	}
	if snap.Headlines, err = adapter.Headlines(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to fetch headlines")
		snap.Headlines = nil
	}

	log.Debug().
		Int("positions", len(snap.Positions)).
		Int("candidates", len(snap.Candidates)).
		Int("candles", len(snap.Candles)).
		Msg("Collected cycle inputs")
	return snap
}
