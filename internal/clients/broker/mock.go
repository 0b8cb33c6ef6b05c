package broker

import (
	"context"
	"fmt"

	"github.com/aristath/vitals/internal/domain"
)

// MockAdapter serves a fixed demo portfolio
type MockAdapter struct{}

// NewMockAdapter creates the demo adapter
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// Name implements Adapter
func (a *MockAdapter) Name() string {
	return "mock"
}

// Portfolio implements Adapter. Cash is kept below the default reserve on purpose.
func (a *MockAdapter) Portfolio(ctx context.Context) (domain.PortfolioState, error) {
	return domain.PortfolioState{
		TotalCapital:  1_000_000,
		Cash:          45_000,
		RiskTolerance: "moderate",
	}, nil
}

// Positions implements Adapter: one healthy leader, one stagnant utility, one losing speculation
func (a *MockAdapter) Positions(ctx context.Context) ([]domain.Position, error) {
	return []domain.Position{
		{Symbol: "NVDA", Sector: "TECH", EntryPrice: 400, CurrentPrice: 500, ATR: 10, DaysHeld: 15, CapitalAllocated: 300_000},
		{Symbol: "SLOW_UTIL", Sector: "UTILITIES", EntryPrice: 50, CurrentPrice: 50.5, ATR: 0.5, DaysHeld: 45, CapitalAllocated: 150_000},
		{Symbol: "SPEC_TECH", Sector: "TECH", EntryPrice: 100, CurrentPrice: 95, ATR: 5, DaysHeld: 5, CapitalAllocated: 250_000},
	}, nil
}

// Candidates implements Adapter
func (a *MockAdapter) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	return []domain.Candidate{
		{Symbol: "NEW_BIO", Sector: "BIOTECH", ProjectedEfficiency: 85},
		{Symbol: "MORE_TECH", Sector: "TECH", ProjectedEfficiency: 95},
	}, nil
}

// SectorHeatmap implements Adapter
func (a *MockAdapter) SectorHeatmap(ctx context.Context) (domain.SectorHeatmap, error) {
	return domain.SectorHeatmap{
		"TECH":      80,
		"BIOTECH":   70,
		"UTILITIES": 30,
	}, nil
}

// Candles implements Adapter with a steady synthetic uptrend. symbol is ignored.
func (a *MockAdapter) Candles(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		limit = DefaultCandleLimit
	}
	const base = 100.0

	candles := make([]domain.Candle, limit)
	for i := range candles {
		f := float64(i)
		candles[i] = domain.Candle{
			Timestamp: fmt.Sprintf("2026-01-31T10:%02d:00Z", i),
			Open:      base + f,
			High:      base + f + 2,
			Low:       base + f - 1,
			Close:     base + f + 0.5,
			Volume:    1_000_000 + f*10_000,
		}
	}
	return candles, nil
}

// Headlines implements Adapter
func (a *MockAdapter) Headlines(ctx context.Context) ([]string, error) {
	return []string{
		"Tech sector shows resilience despite rate hike fears",
		"AI demand continues to outpace supply in hardware markets",
		"Utility sector stagnates as bond yields rise",
	}, nil
}
