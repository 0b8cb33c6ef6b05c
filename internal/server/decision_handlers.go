package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/modules/planning"
	"github.com/aristath/vitals/internal/modules/safety"
	"github.com/aristath/vitals/internal/modules/scenarios"
	"github.com/aristath/vitals/internal/services"
)

// DecisionHandlers serves decision cycles, guardrail checks and scenarios
type DecisionHandlers struct {
	advisory *services.AdvisoryService
	log      zerolog.Logger
}

// NewDecisionHandlers creates new decision handlers
func NewDecisionHandlers(advisory *services.AdvisoryService, log zerolog.Logger) *DecisionHandlers {
	return &DecisionHandlers{
		advisory: advisory,
		log:      log.With().Str("handler", "decisions").Logger(),
	}
}

// HandleRun handles GET /api/run?scenario=
// Runs a cycle on adapter data, optionally under a scenario
func (h *DecisionHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	scenarioID := strings.TrimSpace(r.URL.Query().Get("scenario"))

	report, err := h.advisory.RunCycle(r.Context(), scenarioID)
	if err != nil {
		if errors.Is(err, scenarios.ErrUnknownScenario) {
			writeError(w, http.StatusNotFound, "unknown scenario: "+scenarioID)
			return
		}
		h.log.Error().Err(err).Str("scenario", scenarioID).Msg("Cycle failed")
		writeError(w, http.StatusInternalServerError, "failed to run decision cycle")
		return
	}

	writeNegotiated(w, r, http.StatusOK, report)
}

// HandleDecisions handles POST /api/decisions
// Runs a cycle on caller-supplied inputs
func (h *DecisionHandlers) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if errs := readAndValidateRequest(w, r, &req); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid request",
			"errors": errs,
		})
		return
	}

	in := req.toCycleInput(h.advisory.ExecutionContext())
	if !scenarios.IsNone(req.Scenario) {
		scenario, err := scenarios.Get(req.Scenario)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown scenario: "+req.Scenario)
			return
		}
		in = scenario.Apply(in)
	}

	report, err := h.advisory.Run(r.Context(), in)
	if err != nil {
		h.log.Error().Err(err).Msg("Cycle failed")
		writeError(w, http.StatusInternalServerError, "failed to run decision cycle")
		return
	}

	writeNegotiated(w, r, http.StatusOK, report)
}

// HandleGuardrails handles POST /api/guardrails
// Partitions the given decisions without running a cycle
func (h *DecisionHandlers) HandleGuardrails(w http.ResponseWriter, r *http.Request) {
	var req GuardrailRequest
	if errs := readAndValidateRequest(w, r, &req); errs != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid request",
			"errors": errs,
		})
		return
	}

	result := safety.ApplyRiskGuardrails(req.Decisions, req.toRiskContext())
	writeNegotiated(w, r, http.StatusOK, map[string]interface{}{
		"allowed_actions": result.Allowed,
		"blocked_actions": result.Blocked,
		"summary":         safety.SummarizeGuardrailResults(result),
	})
}

// HandleScenarios handles GET /api/scenarios
func (h *DecisionHandlers) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": scenarios.List(),
	})
}

// HandleLatest handles GET /api/latest
func (h *DecisionHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	report, ok := h.advisory.Latest().Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no decision cycle has run yet")
		return
	}
	writeNegotiated(w, r, http.StatusOK, report)
}

// HandleLatestPlan handles GET /api/latest/plan
// Returns the execution plan and summary derived from the latest report
func (h *DecisionHandlers) HandleLatestPlan(w http.ResponseWriter, r *http.Request) {
	report, ok := h.advisory.Latest().Get()
	if !ok {
		writeError(w, http.StatusNotFound, "no decision cycle has run yet")
		return
	}

	writeNegotiated(w, r, http.StatusOK, map[string]interface{}{
		"cycle_id": report.CycleID,
		"plan":     planning.PlanReport(report),
		"summary":  planning.Summarize(report),
	})
}
