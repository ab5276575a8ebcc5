package protocol

import (
	"encoding/json"
	"fmt"
)

// Push-channel event types carried over the per-room WebSocket.
const (
	EventMessage   = "message"
	EventScore     = "score"
	EventRoomReady = "room_ready"
)

// Envelope is the framing for every push-channel event: a type discriminator
// plus the raw payload bytes for deferred parsing into a concrete struct.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It extracts the
// type discriminator and keeps the payload raw so that it can be decoded
// later into the appropriate concrete struct.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var partial struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	e.Payload = partial.Payload
	return nil
}

// ScoreEvent carries a refreshed nickname->percentage win-rate mapping.
type ScoreEvent struct {
	Scores map[string]int `json:"winRates"`
}

// RoomReadyEvent signals that both participants are present in the room.
type RoomReadyEvent struct {
	RoomID int64 `json:"roomId"`
	Ready  bool  `json:"ready"`
}

// ParseServerEvent parses raw push-channel bytes into a typed event. It
// returns the event type string, the decoded struct, and any error
// encountered during parsing. Unknown event types yield an error so the
// caller can decide whether to skip or surface them.
func ParseServerEvent(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse event: %w", err)
	}

	var (
		evt interface{}
		err error
	)

	switch env.Type {
	case EventMessage:
		var m MessageDTO
		err = json.Unmarshal(env.Payload, &m)
		evt = m
	case EventScore:
		var s ScoreEvent
		err = json.Unmarshal(env.Payload, &s)
		evt = s
	case EventRoomReady:
		var r RoomReadyEvent
		err = json.Unmarshal(env.Payload, &r)
		evt = r
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown event type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, evt, nil
}

// NewEvent creates a JSON-encoded push-channel event with the given type and
// payload. It is primarily used by tests and tooling that simulate the
// server side of the channel.
func NewEvent(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal payload: %w", err)
	}
	out, err := json.Marshal(Envelope{Type: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal event: %w", err)
	}
	return out, nil
}

// MarshalJSON implements the json.Marshaler interface for Envelope so that
// NewEvent round-trips through the same framing the server uses.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}
	return json.Marshal(plain{Type: e.Type, Payload: e.Payload})
}
