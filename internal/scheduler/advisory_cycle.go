package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/modules/decisions"
)

// DefaultCycleTimeout bounds one scheduled advisory cycle
const DefaultCycleTimeout = 30 * time.Second

// CycleRunner runs one advisory cycle. Implemented by services.AdvisoryService.
type CycleRunner interface {
	RunCycle(ctx context.Context, scenarioID string) (decisions.DecisionReport, error)
}

// AdvisoryCycleJob runs a live advisory cycle on adapter data
type AdvisoryCycleJob struct {
	runner  CycleRunner
	timeout time.Duration
	log     zerolog.Logger
}

// NewAdvisoryCycleJob creates a new AdvisoryCycleJob
func NewAdvisoryCycleJob(runner CycleRunner, timeout time.Duration, log zerolog.Logger) *AdvisoryCycleJob {
	if timeout <= 0 {
		timeout = DefaultCycleTimeout
	}
	return &AdvisoryCycleJob{
		runner:  runner,
		timeout: timeout,
		log:     log.With().Str("job", "advisory_cycle").Logger(),
	}
}

// Name returns the job name
func (j *AdvisoryCycleJob) Name() string {
	return "advisory_cycle"
}

// Run executes one cycle. The report reaches consumers through the decision
// service's events and latest store.
func (j *AdvisoryCycleJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	report, err := j.runner.RunCycle(ctx, "")
	if err != nil {
		return err
	}

	j.log.Info().
		Str("cycle_id", report.CycleID).
		Str("posture", string(report.MarketPosture.Posture)).
		Int("allowed", len(report.Decisions)).
		Int("blocked", len(report.BlockedBySafety)).
		Msg("Scheduled cycle completed")
	return nil
}
