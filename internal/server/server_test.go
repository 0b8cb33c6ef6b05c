package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"nhooyr.io/websocket"

	"github.com/aristath/vitals/internal/clients/broker"
	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/metrics"
	"github.com/aristath/vitals/internal/modules/decisions"
	"github.com/aristath/vitals/internal/modules/safety"
	"github.com/aristath/vitals/internal/services"
)

type testServer struct {
	server   *Server
	advisory *services.AdvisoryService
	bus      *events.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := events.NewBus()
	recorder := metrics.New()
	decisionService := decisions.NewService(events.NewManager(bus, log), recorder, nil, log)
	advisory := services.NewAdvisoryService(broker.NewMockAdapter(), decisionService, services.AdvisoryConfig{
		MinimumReserve:     50000,
		IncludeSuperiority: true,
	}, log)

	return &testServer{
		server: New(Config{
			Log:      log,
			Advisory: advisory,
			EventBus: bus,
			Metrics:  recorder,
			Port:     0,
			DevMode:  true,
		}),
		advisory: advisory,
		bus:      bus,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const decisionBody = `{
	"portfolio": {"total_capital": 100000, "cash": 30000},
	"positions": [
		{"symbol": "AAPL", "sector": "TECH", "entry_price": 100, "current_price": 110, "atr": 2, "days_held": 10, "capital_allocated": 20000},
		{"symbol": "XOM", "sector": "ENERGY", "entry_price": 50, "current_price": 45, "atr": 1.5, "days_held": 40, "capital_allocated": 15000}
	],
	"sector_heatmap": {"TECH": 70, "ENERGY": 40},
	"candidates": [{"symbol": "NVDA", "sector": "TECH", "projected_efficiency": 80}]
}`

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "vitals", body["service"])
	assert.Equal(t, "mock", body["adapter"])
}

func TestServer_Run(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/run", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["cycle_id"])
	assert.Len(t, body["positions"], 3)

	rec = ts.do(t, http.MethodGet, "/api/run?scenario=crash_reflex", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "crash_reflex", body["scenario"])
	posture := body["market_posture"].(map[string]interface{})
	assert.Equal(t, "DEFENSIVE", posture["market_posture"])

	rec = ts.do(t, http.MethodGet, "/api/run?scenario=moon_landing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown scenario: moon_landing", decodeBody(t, rec)["error"])
}

func TestServer_Decisions(t *testing.T) {
	ts := newTestServer(t)

	t.Run("valid request", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/decisions", decisionBody, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		assert.Len(t, body["positions"], 2)
		allowed := body["decisions"].([]interface{})
		blocked := body["blocked_by_safety"].([]interface{})
		assert.Len(t, append(allowed, blocked...), 3)
	})

	t.Run("msgpack response", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/decisions", decisionBody, map[string]string{"Accept": "application/msgpack"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

		var report map[string]interface{}
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &report))
		assert.NotEmpty(t, report["cycle_id"])
	})

	t.Run("scenario in body", func(t *testing.T) {
		body := strings.Replace(decisionBody, `"portfolio"`, `"scenario": "crash_reflex", "portfolio"`, 1)
		rec := ts.do(t, http.MethodPost, "/api/decisions", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "crash_reflex", decodeBody(t, rec)["scenario"])
	})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "bad risk tolerance",
			body:  `{"portfolio": {"total_capital": 1000, "risk_tolerance": "reckless"}}`,
			field: "portfolio.risk_tolerance",
		},
		{
			name:  "missing position symbol",
			body:  `{"positions": [{"entry_price": 10, "current_price": 11}]}`,
			field: "positions[0].symbol",
		},
		{
			name:  "heatmap out of range",
			body:  `{"sector_heatmap": {"TECH": 140}}`,
			field: "sector_heatmap[TECH]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/decisions", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Error  string            `json:"error"`
				Errors []ValidationError `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "invalid request", body.Error)
			require.NotEmpty(t, body.Errors)
			assert.Equal(t, tt.field, body.Errors[0].Field)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/decisions", `{"portfolio":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/decisions", `{"scenario": "moon_landing"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Guardrails(t *testing.T) {
	ts := newTestServer(t)

	decisionsJSON := `[{"target": "AAPL", "type": "POSITION", "action": "HOLD", "reason": "steady", "score": 55}]`

	t.Run("null context blocks everything", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+decisionsJSON+`, "context": null}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Empty(t, body["allowed_actions"])
		assert.Len(t, body["blocked_actions"], 1)
		assert.NotEmpty(t, body["summary"])
	})

	allocateJSON := `[{"target": "NVDA", "type": "CANDIDATE", "action": "ALLOCATE", "sector": "TECH", "reason": "hot sector", "score": 80}]`

	blocked := []struct {
		name    string
		context string
		reason  string
	}{
		{"empty context", `{}`, safety.ReasonMissingContext},
		{"cash below the default reserve", `{"cash_available": 10000}`, safety.ReasonInsufficientCash},
		{"cash below an explicit reserve", `{"cash_available": 10000, "minimum_reserve": 20000}`, safety.ReasonInsufficientCash},
	}
	for _, tt := range blocked {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+allocateJSON+`, "context": `+tt.context+`}`, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			body := decodeBody(t, rec)
			assert.Empty(t, body["allowed_actions"])
			require.Len(t, body["blocked_actions"], 1)
			decision := body["blocked_actions"].([]interface{})[0].(map[string]interface{})
			assert.Equal(t, tt.reason, decision["safety_reason"])
		})
	}

	t.Run("partial context with enough cash allows an allocation", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+allocateJSON+`, "context": {"cash_available": 80000}}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Len(t, body["allowed_actions"], 1)
		assert.Empty(t, body["blocked_actions"])
	})

	t.Run("unknown volatility state is rejected", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+allocateJSON+`, "context": {"cash_available": 80000, "volatility_state": "BOGUS"}}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "context.volatility_state")
	})

	t.Run("negative cash is rejected", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+allocateJSON+`, "context": {"cash_available": -1}}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("calm context allows a hold", func(t *testing.T) {
		ctx := `{"cash_available": 100000, "minimum_reserve": 50000, "volatility_state": "STABLE"}`
		rec := ts.do(t, http.MethodPost, "/api/guardrails", `{"decisions": `+decisionsJSON+`, "context": `+ctx+`}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Len(t, body["allowed_actions"], 1)
		assert.Empty(t, body["blocked_actions"])
	})
}

func TestServer_Scenarios(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/scenarios", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody(t, rec)["scenarios"].([]interface{})
	assert.NotEmpty(t, list)
	assert.Contains(t, rec.Body.String(), "crash_reflex")
}

func TestServer_Latest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/latest", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/latest/plan", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	report, err := ts.advisory.RunCycle(context.Background(), "")
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/api/latest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.CycleID, decodeBody(t, rec)["cycle_id"])

	rec = ts.do(t, http.MethodGet, "/api/latest/plan", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, report.CycleID, body["cycle_id"])
	assert.Contains(t, body, "plan")
	assert.Contains(t, body, "summary")
}

func TestServer_SystemStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/system/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "mock", body["adapter"])
	assert.NotContains(t, body, "last_cycle")
	assert.Contains(t, body, "market")

	_, err := ts.advisory.RunCycle(context.Background(), "")
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/api/system/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lastCycle := decodeBody(t, rec)["last_cycle"].(map[string]interface{})
	assert.NotEmpty(t, lastCycle["cycle_id"])
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.advisory.RunCycle(context.Background(), "")
	require.NoError(t, err)
	ts.do(t, http.MethodGet, "/health", "", nil)

	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vitals_cycles_total")
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestServer_Stream(t *testing.T) {
	ts := newTestServer(t)
	httpServer := httptest.NewServer(ts.server.Handler())
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/api/stream?types=cycle_completed"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() StreamMessage {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg StreamMessage
		require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&msg))
		return msg
	}

	assert.Equal(t, "connected", read().Type)
	assert.Equal(t, 1, ts.bus.SubscriberCount(events.CycleCompleted))

	report, err := ts.advisory.RunCycle(ctx, "")
	require.NoError(t, err)

	msg := read()
	assert.Equal(t, string(events.CycleCompleted), msg.Type)
	assert.Equal(t, report.CycleID, msg.Data["cycle_id"])
	require.NotNil(t, msg.Report)
	assert.Equal(t, report.CycleID, msg.Report.CycleID)
}

func TestServer_StreamWithoutBus(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	handler := NewEventsStreamHandler(nil, nil, log)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParseEventTypes(t *testing.T) {
	assert.Equal(t, events.AllEventTypes(), parseEventTypes(""))
	assert.Equal(t, []events.EventType{events.CycleCompleted}, parseEventTypes("cycle_completed, CYCLE_COMPLETED, nope"))
	assert.Empty(t, parseEventTypes("nope"))
}
