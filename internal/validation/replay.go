package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
)

const (
	// ReferenceSymbol drives the market context when it is part of the replay
	ReferenceSymbol = "SPY"
	// WindowSize is the number of candles handed to each cycle
	WindowSize = 20
	// ReplayCapital is the synthetic portfolio size used during a replay
	ReplayCapital = 100000.0

	dateLayout       = "2006-01-02"
	progressInterval = 10
)

var (
	// ErrNoSymbols is returned when a replay is started without symbols
	ErrNoSymbols = errors.New("no symbols to replay")
	// ErrInvalidRange is returned when the end date precedes the start date
	ErrInvalidRange = errors.New("end date precedes start date")
)

// HistorySource supplies the full candle history of a symbol
type HistorySource interface {
	Candles(ctx context.Context, symbol string) ([]domain.Candle, error)
}

// CycleSummary is the trace of one replayed day
type CycleSummary struct {
	Date      string               `json:"date"`
	Posture   domain.MarketPosture `json:"posture"`
	Pressure  float64              `json:"pressure_score"`
	Decisions []domain.Decision    `json:"decisions"`
	Blocked   []domain.Decision    `json:"blocked_by_safety"`
}

// Result is the outcome of a replay
type Result struct {
	Symbols   []string       `json:"symbols"`
	Reference string         `json:"reference_symbol"`
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Report    Report         `json:"report"`
	Cycles    []CycleSummary `json:"cycles"`
}

// Replayer steps through history one day at a time and runs the decision
// engine on a frozen synthetic portfolio.
type Replayer struct {
	source HistorySource
	log    zerolog.Logger
}

// NewReplayer creates a replayer over the given history source
func NewReplayer(source HistorySource, log zerolog.Logger) *Replayer {
	return &Replayer{
		source: source,
		log:    log.With().Str("service", "replay").Logger(),
	}
}

// Run replays every calendar day in [start, end]. Days without any candle
// strictly before them are skipped. Symbols whose history cannot be loaded
// are logged and replayed as empty.
func (r *Replayer) Run(ctx context.Context, symbols []string, start, end time.Time) (*Result, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	history := make(map[string][]domain.Candle, len(symbols))
	for _, symbol := range symbols {
		candles, err := r.source.Candles(ctx, symbol)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("replay cancelled: %w", ctxErr)
			}
			r.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to load history, replaying symbol as empty")
			continue
		}
		sorted := append([]domain.Candle(nil), candles...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
		history[symbol] = sorted
	}

	reference := referenceSymbol(symbols)
	metrics := NewMetrics()
	exec := replayExecutionContext()
	result := &Result{
		Symbols:   append([]string(nil), symbols...),
		Reference: reference,
		Start:     start.Format(dateLayout),
		End:       end.Format(dateLayout),
	}

	r.log.Info().
		Strs("symbols", symbols).
		Str("reference", reference).
		Str("start", result.Start).
		Str("end", result.End).
		Msg("Starting replay")

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay cancelled: %w", err)
		}

		date := day.Format(dateLayout)
		window := windowBefore(history[reference], date, WindowSize)
		if len(window) == 0 {
			continue
		}

		report := decisions.RunDecisionEngine(
			replayPortfolio(),
			nil,
			replayHeatmap(),
			replayCandidates(),
			domain.MarketContext{Candles: window},
			&exec,
		)

		metrics.RecordCycle(report.Decisions)
		result.Cycles = append(result.Cycles, CycleSummary{
			Date:      date,
			Posture:   report.MarketPosture.Posture,
			Pressure:  report.PressureScore,
			Decisions: report.Decisions,
			Blocked:   report.BlockedBySafety,
		})

		if len(result.Cycles)%progressInterval == 0 {
			r.log.Debug().Int("cycles", len(result.Cycles)).Str("date", date).Msg("Replay progress")
		}
	}

	result.Report = metrics.Report()
	r.log.Info().
		Int("cycles", result.Report.TotalDecisionCycles).
		Float64("stability", result.Report.StabilityScore).
		Msg("Replay complete")

	return result, nil
}

func referenceSymbol(symbols []string) string {
	for _, s := range symbols {
		if s == ReferenceSymbol {
			return s
		}
	}
	return symbols[0]
}

// windowBefore returns the last n candles whose timestamp sorts before date
func windowBefore(candles []domain.Candle, date string, n int) []domain.Candle {
	idx := sort.Search(len(candles), func(i int) bool { return candles[i].Timestamp >= date })
	from := idx - n
	if from < 0 {
		from = 0
	}
	return candles[from:idx]
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func replayPortfolio() domain.PortfolioState {
	return domain.PortfolioState{
		TotalCapital:  ReplayCapital,
		Cash:          ReplayCapital,
		RiskTolerance: "moderate",
	}
}

func replayHeatmap() domain.SectorHeatmap {
	return domain.SectorHeatmap{"TECH": 50, "SPY": 50}
}

func replayCandidates() []domain.Candidate {
	return []domain.Candidate{
		{Symbol: "TEST_A", Sector: "TECH", ProjectedEfficiency: 75},
		{Symbol: "TEST_B", Sector: "BIO", ProjectedEfficiency: 60},
	}
}

func replayExecutionContext() domain.ExecutionContext {
	return domain.ExecutionContext{
		SystemMode:     domain.SystemModeValidation,
		MarketStatus:   domain.MarketOpen,
		DataFeedMode:   "HISTORICAL",
		DataCapability: "Historical Archive (Cached)",
		MinimumReserve: domain.DefaultMinimumReserve,
	}
}
