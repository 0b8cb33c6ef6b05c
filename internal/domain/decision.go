package domain

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Decision is one recommended action for a held position or an external candidate.
// The decision type is set by the constructor and cannot change afterwards.
type Decision struct {
	Target        string
	Action        Action
	Reason        string
	Score         float64
	Sector        string
	Flags         []string
	Reasons       []string
	SafetyReason  string
	BlockingGuard string

	decisionType DecisionType
}

// NewPositionDecision creates a decision about a held position
func NewPositionDecision(target, sector string, action Action, reason string, score float64) Decision {
	return Decision{
		Target:       target,
		Sector:       sector,
		Action:       action,
		Reason:       reason,
		Score:        score,
		decisionType: DecisionPosition,
	}
}

// NewCandidateDecision creates a decision about an external candidate
func NewCandidateDecision(target, sector string, action Action, reason string, score float64) Decision {
	return Decision{
		Target:       target,
		Sector:       sector,
		Action:       action,
		Reason:       reason,
		Score:        score,
		decisionType: DecisionCandidate,
	}
}

// Type returns the decision type
func (d Decision) Type() DecisionType {
	return d.decisionType
}

// IsCandidate reports whether the decision targets an external candidate
func (d Decision) IsCandidate() bool {
	return d.decisionType == DecisionCandidate
}

// Clone returns a copy that shares no slices with d
func (d Decision) Clone() Decision {
	c := d
	if d.Flags != nil {
		c.Flags = append([]string(nil), d.Flags...)
	}
	if d.Reasons != nil {
		c.Reasons = append([]string(nil), d.Reasons...)
	}
	return c
}

// Blocked returns a copy marked as vetoed by a guard
func (d Decision) Blocked(reason, guard string) Decision {
	c := d.Clone()
	c.SafetyReason = reason
	c.BlockingGuard = guard
	return c
}

type decisionWire struct {
	Target        string       `json:"target" msgpack:"target"`
	Type          DecisionType `json:"type" msgpack:"type"`
	Action        Action       `json:"action" msgpack:"action"`
	Reason        string       `json:"reason" msgpack:"reason"`
	Score         float64      `json:"score" msgpack:"score"`
	Sector        string       `json:"sector,omitempty" msgpack:"sector,omitempty"`
	Flags         []string     `json:"flags,omitempty" msgpack:"flags,omitempty"`
	Reasons       []string     `json:"reasons,omitempty" msgpack:"reasons,omitempty"`
	SafetyReason  string       `json:"safety_reason,omitempty" msgpack:"safety_reason,omitempty"`
	BlockingGuard string       `json:"blocking_guard,omitempty" msgpack:"blocking_guard,omitempty"`
}

func (d Decision) wire() decisionWire {
	return decisionWire{
		Target:        d.Target,
		Type:          d.decisionType,
		Action:        d.Action,
		Reason:        d.Reason,
		Score:         d.Score,
		Sector:        d.Sector,
		Flags:         d.Flags,
		Reasons:       d.Reasons,
		SafetyReason:  d.SafetyReason,
		BlockingGuard: d.BlockingGuard,
	}
}

func (d *Decision) fromWire(w decisionWire) {
	*d = Decision{
		Target:        w.Target,
		Action:        w.Action,
		Reason:        w.Reason,
		Score:         w.Score,
		Sector:        w.Sector,
		Flags:         w.Flags,
		Reasons:       w.Reasons,
		SafetyReason:  w.SafetyReason,
		BlockingGuard: w.BlockingGuard,
		decisionType:  w.Type,
	}
}

// MarshalJSON implements json.Marshaler
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.wire())
}

// UnmarshalJSON implements json.Unmarshaler. A missing type reads as POSITION.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var w decisionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == "" {
		w.Type = DecisionPosition
	}
	d.fromWire(w)
	return nil
}

var (
	_ msgpack.CustomEncoder = Decision{}
	_ msgpack.CustomDecoder = (*Decision)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder
func (d Decision) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(d.wire())
}

// DecodeMsgpack implements msgpack.CustomDecoder
func (d *Decision) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w decisionWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	d.fromWire(w)
	return nil
}
