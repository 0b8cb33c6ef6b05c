package events

import (
	"encoding/json"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// CycleStartedData contains data for CycleStarted events
type CycleStartedData struct {
	CycleID    string `json:"cycle_id"`
	Scenario   string `json:"scenario,omitempty"`
	Positions  int    `json:"positions"`
	Candidates int    `json:"candidates"`
}

// EventType returns the event type for CycleStartedData
func (d *CycleStartedData) EventType() EventType {
	return CycleStarted
}

// CycleCompletedData contains data for CycleCompleted events
type CycleCompletedData struct {
	CycleID       string  `json:"cycle_id"`
	Scenario      string  `json:"scenario,omitempty"`
	Posture       string  `json:"posture"`
	Allowed       int     `json:"allowed"`
	Blocked       int     `json:"blocked"`
	PressureScore float64 `json:"pressure_score"`
	Reallocation  bool    `json:"reallocation"`
	DurationMs    int64   `json:"duration_ms"`
}

// EventType returns the event type for CycleCompletedData
func (d *CycleCompletedData) EventType() EventType {
	return CycleCompleted
}

// DecisionBlockedData contains data for DecisionBlocked events
type DecisionBlockedData struct {
	CycleID string `json:"cycle_id"`
	Target  string `json:"target"`
	Action  string `json:"action"`
	Guard   string `json:"guard"`
	Reason  string `json:"reason"`
}

// EventType returns the event type for DecisionBlockedData
func (d *DecisionBlockedData) EventType() EventType {
	return DecisionBlocked
}

// PostureChangedData contains data for PostureChanged events
type PostureChangedData struct {
	CycleID    string `json:"cycle_id"`
	Previous   string `json:"previous"`
	Current    string `json:"current"`
	Confidence int    `json:"confidence"`
}

// EventType returns the event type for PostureChangedData
func (d *PostureChangedData) EventType() EventType {
	return PostureChanged
}

// HistoryLoadedData contains data for HistoryLoaded events
type HistoryLoadedData struct {
	Symbol  string `json:"symbol"`
	Source  string `json:"source"`
	Candles int    `json:"candles"`
	Cached  bool   `json:"cached"`
}

// EventType returns the event type for HistoryLoadedData
func (d *HistoryLoadedData) EventType() EventType {
	return HistoryLoaded
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// GetTypedData converts the event's map payload back into its typed form.
// Returns nil for unknown types or payloads that do not decode.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case CycleStarted:
		data = &CycleStartedData{}
	case CycleCompleted:
		data = &CycleCompletedData{}
	case DecisionBlocked:
		data = &DecisionBlockedData{}
	case PostureChanged:
		data = &PostureChangedData{}
	case HistoryLoaded:
		data = &HistoryLoadedData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
