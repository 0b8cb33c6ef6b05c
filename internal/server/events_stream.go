package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/vitals/internal/events"
	"github.com/aristath/vitals/internal/modules/decisions"
)

const (
	streamBufferSize   = 100
	streamWriteTimeout = 5 * time.Second
	heartbeatInterval  = 30 * time.Second
)

// StreamMessage is one frame sent to stream clients
type StreamMessage struct {
	Type      string                    `json:"type"`
	Module    string                    `json:"module,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
	Data      map[string]interface{}    `json:"data,omitempty"`
	Report    *decisions.DecisionReport `json:"report,omitempty"`
}

// EventsStreamHandler pushes bus events to websocket clients.
// CYCLE_COMPLETED frames carry the full report.
type EventsStreamHandler struct {
	eventBus *events.Bus
	latest   *decisions.LatestStore
	log      zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(eventBus *events.Bus, latest *decisions.LatestStore, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		eventBus: eventBus,
		latest:   latest,
		log:      log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/stream?types=A,B
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.eventBus == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	eventTypes := parseEventTypes(r.URL.Query().Get("types"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// the bus delivers synchronously, so handlers must never block
	eventChan := make(chan *events.Event, streamBufferSize)
	handler := func(event *events.Event) {
		select {
		case eventChan <- event:
		default:
			h.log.Warn().
				Str("event_type", string(event.Type)).
				Msg("Event channel full, dropping event")
		}
	}

	for _, eventType := range eventTypes {
		unsubscribe := h.eventBus.Subscribe(eventType, handler)
		defer unsubscribe()
	}

	// client frames are ignored; ctx ends when the client goes away
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Int("types", len(eventTypes)).Msg("Client connected to event stream")

	if err := h.send(ctx, conn, StreamMessage{Type: "connected", Timestamp: time.Now()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event := <-eventChan:
			if err := h.send(ctx, conn, h.message(event)); err != nil {
				h.log.Debug().Err(err).Msg("Failed to write event, closing stream")
				return
			}

		case <-heartbeat.C:
			if err := h.send(ctx, conn, StreamMessage{Type: "heartbeat", Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

func (h *EventsStreamHandler) message(event *events.Event) StreamMessage {
	msg := StreamMessage{
		Type:      string(event.Type),
		Module:    event.Module,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}

	if event.Type == events.CycleCompleted && h.latest != nil {
		cycleID, _ := event.Data["cycle_id"].(string)
		if report, ok := h.latest.Get(); ok && report.CycleID == cycleID {
			msg.Report = &report
		}
	}
	return msg
}

func (h *EventsStreamHandler) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal stream message")
		return nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// parseEventTypes reads a comma separated filter; empty means every type
func parseEventTypes(filter string) []events.EventType {
	if strings.TrimSpace(filter) == "" {
		return events.AllEventTypes()
	}

	known := make(map[events.EventType]bool)
	for _, t := range events.AllEventTypes() {
		known[t] = true
	}

	var out []events.EventType
	seen := make(map[events.EventType]bool)
	for _, part := range strings.Split(filter, ",") {
		t := events.EventType(strings.ToUpper(strings.TrimSpace(part)))
		if known[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
