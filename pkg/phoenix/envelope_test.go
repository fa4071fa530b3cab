package phoenix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope("room:1", "new_msg", map[string]interface{}{
		"body":  "hello",
		"count": float64(2),
	}, 42)

	data, err := env.Encode()
	require.NoError(t, err)

	parsed, err := ParseEnvelope(data)
	require.NoError(t, err)

	assert.Equal(t, env.Topic, parsed.Topic)
	assert.Equal(t, env.Event, parsed.Event)
	assert.Equal(t, env.Payload, parsed.Payload)
	require.NotNil(t, parsed.Ref)
	assert.Equal(t, int64(42), *parsed.Ref)
}

func TestEnvelopeRoundTripAbsentRef(t *testing.T) {
	env := Envelope{Topic: "room:1", Event: "broadcast", Payload: "update"}

	data, err := env.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ref":null`)

	parsed, err := ParseEnvelope(data)
	require.NoError(t, err)
	assert.Nil(t, parsed.Ref)
	assert.Equal(t, NoRef, parsed.RefValue())
}

func TestEnvelopeRefZeroIsNotAbsent(t *testing.T) {
	parsed, err := ParseEnvelope([]byte(`{"topic":"room:1","event":"phx_reply","payload":{},"ref":0}`))
	require.NoError(t, err)
	require.NotNil(t, parsed.Ref)
	assert.Equal(t, int64(0), parsed.RefValue())

	parsed, err = ParseEnvelope([]byte(`{"topic":"room:1","event":"broadcast","payload":{},"ref":null}`))
	require.NoError(t, err)
	assert.Nil(t, parsed.Ref)
	assert.Equal(t, NoRef, parsed.RefValue())
}

func TestParseEnvelopeMalformed(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"topic":`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEnvelope))
}

func TestHeartbeatEnvelopeWireFormat(t *testing.T) {
	env := NewEnvelope(TopicPhoenix, EventHeartbeat, map[string]interface{}{}, 7)

	data, err := env.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"phoenix","event":"heartbeat","payload":{},"ref":7}`, string(data))
}
