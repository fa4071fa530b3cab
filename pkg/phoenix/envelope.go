package phoenix

import (
	"encoding/json"
	"fmt"
)

// Reserved protocol events and topics.
const (
	// TopicPhoenix is the topic heartbeat envelopes are addressed to.
	TopicPhoenix = "phoenix"

	EventHeartbeat = "heartbeat"
	EventJoin      = "phx_join"
	EventReply     = "phx_reply"
	EventLeave     = "phx_leave"
	EventClose     = "phx_close"
	EventError     = "phx_error"
)

// NoRef is the sentinel passed to channels when an inbound envelope carries
// no ref. It is used for routing only; the envelope itself keeps the absence.
const NoRef int64 = -1

// Envelope is the four-field message unit exchanged over the transport.
//
// Ref is a pointer so that a wire-level null round-trips as nil rather than
// being coerced to zero: a reply carrying ref 0 and a broadcast carrying no
// ref are different messages.
type Envelope struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ref     *int64      `json:"ref"`
}

// NewEnvelope builds an envelope with the given ref attached.
func NewEnvelope(topic, event string, payload interface{}, ref int64) Envelope {
	r := ref
	return Envelope{Topic: topic, Event: event, Payload: payload, Ref: &r}
}

// RefValue returns the envelope's ref, or NoRef when it is absent.
func (e Envelope) RefValue() int64 {
	if e.Ref == nil {
		return NoRef
	}
	return *e.Ref
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// ParseEnvelope decodes a wire message into an Envelope.
func ParseEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return e, nil
}
