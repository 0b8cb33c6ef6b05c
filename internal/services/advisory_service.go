// Package services holds application services that orchestrate clients and modules.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/clients/broker"
	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/modules/market_hours"
	"github.com/aristath/vitals/internal/modules/scenarios"
)

// AdvisoryConfig holds the execution settings of every cycle
type AdvisoryConfig struct {
	HasCredentials     bool
	MinimumReserve     float64
	IncludeSuperiority bool
}

// AdvisoryService runs one advisory cycle end to end: collect inputs from the
// adapter, resolve the execution context, apply a scenario and run the engine.
type AdvisoryService struct {
	adapter   broker.Adapter
	decisions *decisions.Service
	cfg       AdvisoryConfig
	now       func() time.Time
	log       zerolog.Logger
}

// NewAdvisoryService creates a new advisory service
func NewAdvisoryService(
	adapter broker.Adapter,
	decisionService *decisions.Service,
	cfg AdvisoryConfig,
	log zerolog.Logger,
) *AdvisoryService {
	if cfg.MinimumReserve < 0 {
		cfg.MinimumReserve = domain.DefaultMinimumReserve
	}
	return &AdvisoryService{
		adapter:   adapter,
		decisions: decisionService,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("service", "advisory").Logger(),
	}
}

// AdapterName names the data source behind the cycles
func (s *AdvisoryService) AdapterName() string {
	return s.adapter.Name()
}

// ExecutionContext resolves the context a cycle started now would run in
func (s *AdvisoryService) ExecutionContext() domain.ExecutionContext {
	return market_hours.ResolveExecutionContext(s.now(), s.cfg.HasCredentials, s.cfg.MinimumReserve, s.cfg.IncludeSuperiority)
}

// BuildInput collects the cycle input for a scenario id. An empty id or
// NORMAL runs on live adapter data; unknown ids return ErrUnknownScenario.
func (s *AdvisoryService) BuildInput(ctx context.Context, scenarioID string) (decisions.CycleInput, error) {
	var scenario *scenarios.Scenario
	if !scenarios.IsNone(scenarioID) {
		sc, err := scenarios.Get(scenarioID)
		if err != nil {
			return decisions.CycleInput{}, fmt.Errorf("failed to load scenario %q: %w", scenarioID, err)
		}
		scenario = &sc
	}

	snap := broker.Collect(ctx, s.adapter, s.log)
	in := snap.CycleInput("", s.ExecutionContext())
	if scenario != nil {
		in = scenario.Apply(in)
	}
	return in, nil
}

// RunCycle builds the input for scenarioID and runs it through the decision service
func (s *AdvisoryService) RunCycle(ctx context.Context, scenarioID string) (decisions.DecisionReport, error) {
	in, err := s.BuildInput(ctx, scenarioID)
	if err != nil {
		return decisions.DecisionReport{}, err
	}

	report, err := s.decisions.Run(ctx, in)
	if err != nil {
		return decisions.DecisionReport{}, fmt.Errorf("failed to run advisory cycle: %w", err)
	}
	return report, nil
}

// Run executes a cycle on the given input, bypassing the adapter
func (s *AdvisoryService) Run(ctx context.Context, in decisions.CycleInput) (decisions.DecisionReport, error) {
	return s.decisions.Run(ctx, in)
}

// Latest returns the store holding the most recent report
func (s *AdvisoryService) Latest() *decisions.LatestStore {
	return s.decisions.Latest()
}
