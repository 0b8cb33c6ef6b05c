// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	CycleStarted    EventType = "CYCLE_STARTED"
	CycleCompleted  EventType = "CYCLE_COMPLETED"
	DecisionBlocked EventType = "DECISION_BLOCKED"
	PostureChanged  EventType = "POSTURE_CHANGED"
	HistoryLoaded   EventType = "HISTORY_LOADED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// AllEventTypes lists every event type the system emits, in a stable order
func AllEventTypes() []EventType {
	return []EventType{
		CycleStarted,
		CycleCompleted,
		DecisionBlocked,
		PostureChanged,
		HistoryLoaded,
		ErrorOccurred,
	}
}

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
