package decisions

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/modules/superiority"
)

// Recorder receives per-cycle metrics. Implemented by metrics.Recorder.
type Recorder interface {
	ObserveCycle(posture string, duration time.Duration, pressure float64)
	ObserveDecision(decisionType, action string)
	ObserveBlocked(guard string)
}

// CycleInput is everything one cycle needs
type CycleInput struct {
	Scenario   string                   `json:"scenario,omitempty"`
	Portfolio  domain.PortfolioState    `json:"portfolio"`
	Positions  []domain.Position        `json:"positions"`
	Heatmap    domain.SectorHeatmap     `json:"sector_heatmap"`
	Candidates []domain.Candidate       `json:"candidates"`
	Market     domain.MarketContext     `json:"market"`
	Execution  *domain.ExecutionContext `json:"execution_context,omitempty"`
}

// Service runs decision cycles and publishes their outcome.
// The engine itself stays pure; the service stamps identity and time,
// and fans results out to events, metrics and the latest store.
type Service struct {
	eventManager *events.Manager
	recorder     Recorder
	latest       *LatestStore
	log          zerolog.Logger

	rngMu  sync.Mutex
	rng    *rand.Rand
	trials int

	now   func() time.Time
	newID func() string
}

// NewService creates a decision service. eventManager and recorder may be nil.
func NewService(eventManager *events.Manager, recorder Recorder, latest *LatestStore, log zerolog.Logger) *Service {
	if latest == nil {
		latest = NewLatestStore()
	}
	return &Service{
		eventManager: eventManager,
		recorder:     recorder,
		latest:       latest,
		log:          log.With().Str("service", "decisions").Logger(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// EnableCounterfactual attaches a stability simulation to every cycle.
// rng is owned by the service from here on.
func (s *Service) EnableCounterfactual(rng *rand.Rand, trials int) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rng
	s.trials = trials
}

// Latest returns the store holding the most recent report
func (s *Service) Latest() *LatestStore {
	return s.latest
}

// Run executes one cycle
func (s *Service) Run(ctx context.Context, in CycleInput) (DecisionReport, error) {
	if err := ctx.Err(); err != nil {
		return DecisionReport{}, fmt.Errorf("decision cycle cancelled: %w", err)
	}

	cycleID := s.newID()
	start := s.now()
	log := s.log.With().Str("cycle_id", cycleID).Str("scenario", in.Scenario).Logger()

	s.emit(&events.CycleStartedData{
		CycleID:    cycleID,
		Scenario:   in.Scenario,
		Positions:  len(in.Positions),
		Candidates: len(in.Candidates),
	})

	report := RunDecisionEngine(in.Portfolio, in.Positions, in.Heatmap, in.Candidates, in.Market, in.Execution)
	report.CycleID = cycleID
	report.GeneratedAt = start.UTC()
	report.Scenario = in.Scenario
	report.Counterfactual = s.counterfactual(report.Superiority)

	duration := s.now().Sub(start)

	log.Info().
		Str("posture", string(report.MarketPosture.Posture)).
		Int("allowed", len(report.Decisions)).
		Int("blocked", len(report.BlockedBySafety)).
		Float64("pressure", report.PressureScore).
		Dur("duration", duration).
		Msg("Decision cycle completed")

	s.record(report, duration)
	s.publish(report, duration)
	return report, nil
}

func (s *Service) counterfactual(analysis *superiority.Analysis) *superiority.Counterfactual {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	if s.rng == nil {
		return nil
	}
	return superiority.SimulateCounterfactual(analysis, s.rng, s.trials)
}

func (s *Service) record(report DecisionReport, duration time.Duration) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveCycle(string(report.MarketPosture.Posture), duration, report.PressureScore)
	for _, d := range report.Decisions {
		s.recorder.ObserveDecision(string(d.Type()), string(d.Action))
	}
	for _, d := range report.BlockedBySafety {
		s.recorder.ObserveBlocked(d.BlockingGuard)
	}
}

func (s *Service) publish(report DecisionReport, duration time.Duration) {
	previous, hadPrevious := s.latest.Swap(report)

	if hadPrevious && previous.MarketPosture.Posture != report.MarketPosture.Posture {
		s.emit(&events.PostureChangedData{
			CycleID:    report.CycleID,
			Previous:   string(previous.MarketPosture.Posture),
			Current:    string(report.MarketPosture.Posture),
			Confidence: report.MarketPosture.Confidence,
		})
	}

	for _, d := range report.BlockedBySafety {
		s.emit(&events.DecisionBlockedData{
			CycleID: report.CycleID,
			Target:  d.Target,
			Action:  string(d.Action),
			Guard:   d.BlockingGuard,
			Reason:  d.SafetyReason,
		})
	}

	s.emit(&events.CycleCompletedData{
		CycleID:       report.CycleID,
		Scenario:      report.Scenario,
		Posture:       string(report.MarketPosture.Posture),
		Allowed:       len(report.Decisions),
		Blocked:       len(report.BlockedBySafety),
		PressureScore: report.PressureScore,
		Reallocation:  report.ReallocationTrigger,
		DurationMs:    duration.Milliseconds(),
	})
}

func (s *Service) emit(data events.EventData) {
	if s.eventManager == nil {
		return
	}
	s.eventManager.EmitTyped("decisions", data)
}
