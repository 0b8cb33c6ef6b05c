package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/domain"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/modules/market_hours"
	"github.com/aristath/vitals/internal/services"
)

// cpuSampleWindow is how long cpu.Percent samples for
const cpuSampleWindow = 100 * time.Millisecond

// SystemHandlers handles monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	advisory    *services.AdvisoryService
	bus         *events.Bus
	cacheDB     *database.DB
	now         func() time.Time
}

// NewSystemHandlers creates system handlers. bus and cacheDB may be nil.
func NewSystemHandlers(advisory *services.AdvisoryService, bus *events.Bus, cacheDB *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		advisory:    advisory,
		bus:         bus,
		cacheDB:     cacheDB,
		now:         time.Now,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status           string                    `json:"status"`
	Adapter          string                    `json:"adapter"`
	UptimeSeconds    int64                     `json:"uptime_seconds"`
	Goroutines       int                       `json:"goroutines"`
	CPUPercent       float64                   `json:"cpu_percent"`
	MemoryPercent    float64                   `json:"memory_percent"`
	MemoryUsedMB     float64                   `json:"memory_used_mb"`
	Market           market_hours.MarketStatus `json:"market"`
	ExecutionContext domain.ExecutionContext   `json:"execution_context"`
	LastCycle        *CycleStatus              `json:"last_cycle,omitempty"`
	Cache            *database.Stats           `json:"cache,omitempty"`
	Subscribers      map[events.EventType]int  `json:"subscribers,omitempty"`
}

// CycleStatus summarises the most recent decision cycle
type CycleStatus struct {
	CycleID     string               `json:"cycle_id"`
	Scenario    string               `json:"scenario,omitempty"`
	Posture     domain.MarketPosture `json:"posture"`
	Decisions   int                  `json:"decisions"`
	Blocked     int                  `json:"blocked"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// HandleSystemStatus returns process and advisor status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	response := SystemStatusResponse{
		Status:           "healthy",
		Adapter:          h.advisory.AdapterName(),
		UptimeSeconds:    int64(now.Sub(h.startupTime).Seconds()),
		Goroutines:       runtime.NumGoroutine(),
		Market:           market_hours.Status(now),
		ExecutionContext: h.advisory.ExecutionContext(),
	}

	if percents, err := cpu.PercentWithContext(r.Context(), cpuSampleWindow, false); err != nil {
		h.log.Warn().Err(err).Msg("Failed to sample CPU usage")
	} else if len(percents) > 0 {
		response.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	} else {
		response.MemoryPercent = vm.UsedPercent
		response.MemoryUsedMB = float64(vm.Used) / 1024 / 1024
	}

	if report, ok := h.advisory.Latest().Get(); ok {
		response.LastCycle = &CycleStatus{
			CycleID:     report.CycleID,
			Scenario:    report.Scenario,
			Posture:     report.MarketPosture.Posture,
			Decisions:   len(report.Decisions),
			Blocked:     len(report.BlockedBySafety),
			GeneratedAt: report.GeneratedAt,
		}
	}

	if h.cacheDB != nil {
		stats, err := h.cacheDB.GetStats(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read cache database stats")
			response.Status = "degraded"
		} else {
			response.Cache = stats
		}
	}

	if h.bus != nil {
		response.Subscribers = make(map[events.EventType]int)
		for _, eventType := range events.AllEventTypes() {
			if n := h.bus.SubscriberCount(eventType); n > 0 {
				response.Subscribers[eventType] = n
			}
		}
	}

	writeJSON(w, http.StatusOK, response)
}
