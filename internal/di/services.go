package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/clients/broker"
	"github.com/aristath/vitals/internal/clients/history"
	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/metrics"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/services"
)

// InitializeServices creates the adapter, the event bus and the decision services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	adapter, err := newAdapter(cfg)
	if err != nil {
		return err
	}
	container.Adapter = adapter
	log.Info().Str("adapter", adapter.Name()).Msg("Input adapter ready")

	container.Metrics = metrics.New()
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	container.DecisionService = decisions.NewService(container.EventManager, container.Metrics, nil, log)
	if cfg.CounterfactualTrials > 0 {
		container.DecisionService.EnableCounterfactual(rand.New(rand.NewSource(time.Now().UnixNano())), cfg.CounterfactualTrials)
	}

	container.AdvisoryService = services.NewAdvisoryService(adapter, container.DecisionService, services.AdvisoryConfig{
		HasCredentials:     cfg.HasBrokerCredentials(),
		MinimumReserve:     cfg.MinimumReserve,
		IncludeSuperiority: cfg.IncludeSuperiority,
	}, log)

	if cfg.History.Enabled() {
		source, err := history.NewS3Source(ctx, history.S3Config{
			Bucket:          cfg.History.Bucket,
			Prefix:          cfg.History.Prefix,
			Region:          cfg.History.Region,
			Endpoint:        cfg.History.Endpoint,
			AccessKeyID:     cfg.History.AccessKeyID,
			SecretAccessKey: cfg.History.SecretAccessKey,
			RateLimit:       cfg.History.RateLimit,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create history source: %w", err)
		}
		container.HistorySource = history.NewCachedSource(
			source,
			container.CacheDB,
			cfg.History.CacheTTL,
			container.Metrics,
			container.EventManager,
			log,
		)
	}

	return nil
}

func newAdapter(cfg *config.Config) (broker.Adapter, error) {
	if cfg.SnapshotPath == "" {
		return broker.NewMockAdapter(), nil
	}
	adapter, err := broker.LoadSnapshotAdapter(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot adapter: %w", err)
	}
	return adapter, nil
}
