package validation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vitals/internal/domain"
)

type mapSource map[string][]domain.Candle

func (s mapSource) Candles(_ context.Context, symbol string) ([]domain.Candle, error) {
	candles, ok := s[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return candles, nil
}

// dailyCandles builds one afternoon bar per day of January 2026, newest first
func dailyCandles(fromDay, toDay int) []domain.Candle {
	var out []domain.Candle
	for d := toDay; d >= fromDay; d-- {
		base := 100 + float64(d)
		out = append(out, domain.Candle{
			Timestamp: fmt.Sprintf("2026-01-%02dT16:00:00Z", d),
			Open:      base,
			High:      base + 2,
			Low:       base - 1,
			Close:     base + 0.5,
			Volume:    1e6,
		})
	}
	return out
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func newTestReplayer(src HistorySource) *Replayer {
	return NewReplayer(src, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestReplayer_Run(t *testing.T) {
	src := mapSource{"SPY": dailyCandles(5, 25)}

	result, err := newTestReplayer(src).Run(context.Background(), []string{"SPY"}, day(1), day(10))
	require.NoError(t, err)

	// a bar stamped on the 5th is only visible from the 6th onward
	require.Len(t, result.Cycles, 5)
	assert.Equal(t, "2026-01-06", result.Cycles[0].Date)
	assert.Equal(t, "2026-01-10", result.Cycles[4].Date)
	assert.Equal(t, 5, result.Report.TotalDecisionCycles)
	assert.Equal(t, "SPY", result.Reference)
	assert.Equal(t, "2026-01-01", result.Start)
	assert.Equal(t, "2026-01-10", result.End)

	for _, c := range result.Cycles {
		assert.Equal(t, domain.PostureNeutral, c.Posture, c.Date)
		assert.Len(t, append(c.Decisions, c.Blocked...), 2, c.Date)
	}
}

func TestReplayer_ReferenceSymbol(t *testing.T) {
	src := mapSource{
		"AAPL": dailyCandles(1, 3),
		"MSFT": dailyCandles(1, 20),
	}

	result, err := newTestReplayer(src).Run(context.Background(), []string{"MSFT", "AAPL"}, day(2), day(10))
	require.NoError(t, err)

	assert.Equal(t, "MSFT", result.Reference)
	assert.Len(t, result.Cycles, 9)

	assert.Equal(t, "SPY", referenceSymbol([]string{"QQQ", "SPY"}))
	assert.Equal(t, "QQQ", referenceSymbol([]string{"QQQ", "IWM"}))
}

func TestReplayer_MissingHistoryDegrades(t *testing.T) {
	result, err := newTestReplayer(mapSource{}).Run(context.Background(), []string{"SPY"}, day(1), day(10))
	require.NoError(t, err)

	assert.Empty(t, result.Cycles)
	assert.Equal(t, 0, result.Report.TotalDecisionCycles)
	assert.Equal(t, 1.0, result.Report.StabilityScore)
}

func TestReplayer_Deterministic(t *testing.T) {
	src := mapSource{"SPY": dailyCandles(1, 31)}
	r := newTestReplayer(src)

	first, err := r.Run(context.Background(), []string{"SPY"}, day(1), day(31))
	require.NoError(t, err)
	second, err := r.Run(context.Background(), []string{"SPY"}, day(1), day(31))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReplayer_InvalidInput(t *testing.T) {
	r := newTestReplayer(mapSource{})

	_, err := r.Run(context.Background(), nil, day(1), day(2))
	assert.ErrorIs(t, err, ErrNoSymbols)

	_, err = r.Run(context.Background(), []string{"SPY"}, day(5), day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestReplayer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestReplayer(mapSource{"SPY": dailyCandles(1, 10)}).Run(ctx, []string{"SPY"}, day(1), day(10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWindowBefore(t *testing.T) {
	candles := dailyCandles(1, 31)
	sorted := make([]domain.Candle, 0, len(candles))
	for i := len(candles) - 1; i >= 0; i-- {
		sorted = append(sorted, candles[i])
	}

	window := windowBefore(sorted, "2026-01-31", WindowSize)
	require.Len(t, window, WindowSize)
	assert.Equal(t, "2026-01-11T16:00:00Z", window[0].Timestamp)
	assert.Equal(t, "2026-01-30T16:00:00Z", window[WindowSize-1].Timestamp)

	assert.Len(t, windowBefore(sorted, "2026-01-04", WindowSize), 3)
	assert.Empty(t, windowBefore(sorted, "2026-01-01", WindowSize))
	assert.Empty(t, windowBefore(nil, "2026-01-01", WindowSize))
}
