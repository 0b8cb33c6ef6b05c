// Package di wires the advisor's dependencies for the server and the CLI.
package di

import (
	"github.com/aristath/vitals/internal/clients/broker"
	"github.com/aristath/vitals/internal/clients/history"
	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/metrics"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/services"
)

// Container holds every long-lived dependency
type Container struct {
	// Cache database for archived candles, WAL mode with the cache profile
	CacheDB *database.DB

	// Observability
	Metrics      *metrics.Recorder
	EventBus     *events.Bus
	EventManager *events.Manager

	// Inputs
	Adapter       broker.Adapter
	HistorySource history.Source // nil when no archive bucket is configured

	// Services
	DecisionService *decisions.Service
	AdvisoryService *services.AdvisoryService
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c == nil || c.CacheDB == nil {
		return nil
	}
	return c.CacheDB.Close()
}
