package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDataTypes(t *testing.T) {
	tests := []struct {
		data EventData
		want EventType
	}{
		{&CycleStartedData{}, CycleStarted},
		{&CycleCompletedData{}, CycleCompleted},
		{&DecisionBlockedData{}, DecisionBlocked},
		{&PostureChangedData{}, PostureChanged},
		{&HistoryLoadedData{}, HistoryLoaded},
		{&ErrorEventData{}, ErrorOccurred},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.EventType())
			assert.Contains(t, AllEventTypes(), tt.want)
		})
	}
}

func TestGetTypedData(t *testing.T) {
	original := &CycleCompletedData{
		CycleID:       "c-1",
		Posture:       "NEUTRAL",
		Allowed:       4,
		Blocked:       1,
		PressureScore: 62.5,
		Reallocation:  true,
		DurationMs:    12,
	}
	event := &Event{Type: CycleCompleted, Data: convertEventDataToMap(original)}

	typed, ok := event.GetTypedData().(*CycleCompletedData)
	require.True(t, ok)
	assert.Equal(t, original, typed)

	assert.Nil(t, (&Event{Type: CycleCompleted}).GetTypedData())
	assert.Nil(t, (&Event{Type: "UNKNOWN", Data: map[string]interface{}{}}).GetTypedData())
	assert.Nil(t, (&Event{Type: CycleCompleted, Data: map[string]interface{}{"allowed": "many"}}).GetTypedData())
}

func TestBus_SubscribeAndEmit(t *testing.T) {
	bus := NewBus()

	var got []*Event
	unsubscribe := bus.Subscribe(PostureChanged, func(e *Event) {
		got = append(got, e)
	})
	bus.Subscribe(CycleCompleted, func(e *Event) {
		t.Fatal("wrong type delivered")
	})

	bus.Emit(PostureChanged, "decisions", map[string]interface{}{"current": "RISK_OFF"})
	require.Len(t, got, 1)
	assert.Equal(t, PostureChanged, got[0].Type)
	assert.Equal(t, "decisions", got[0].Module)
	assert.Equal(t, "RISK_OFF", got[0].Data["current"])
	assert.False(t, got[0].Timestamp.IsZero())
	assert.NotEmpty(t, got[0].ID)

	unsubscribe()
	unsubscribe()
	bus.Emit(PostureChanged, "decisions", nil)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, bus.SubscriberCount(PostureChanged))
	assert.Equal(t, 1, bus.SubscriberCount(CycleCompleted))
}

func TestManager_EmitTypedAndError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))
	assert.Same(t, bus, manager.Bus())

	var received []*Event
	for _, et := range AllEventTypes() {
		bus.Subscribe(et, func(e *Event) { received = append(received, e) })
	}

	manager.EmitTyped("decisions", &DecisionBlockedData{CycleID: "c-1", Target: "NEW_BIO", Guard: "CASH_RESERVE_GUARD"})
	manager.EmitError("history", errors.New("boom"), map[string]interface{}{"symbol": "SPY"})
	manager.Emit(CycleStarted, "scheduler", map[string]interface{}{"cycle_id": "c-2"})

	require.Len(t, received, 3)
	assert.Equal(t, DecisionBlocked, received[0].Type)
	assert.Equal(t, "NEW_BIO", received[0].Data["target"])

	errData, ok := received[1].GetTypedData().(*ErrorEventData)
	require.True(t, ok)
	assert.Equal(t, "boom", errData.Error)
	assert.Equal(t, "SPY", errData.Context["symbol"])

	assert.Equal(t, CycleStarted, received[2].Type)
	assert.Equal(t, "scheduler", received[2].Module)
}
