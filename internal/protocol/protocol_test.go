package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"event":"join-room","data":{"roomid":"r1","name":"Alice"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventJoinRoom, env.Event)
	assert.JSONEq(t, `{"roomid":"r1","name":"Alice"}`, string(env.Data))
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"missing event", `{"data":{}}`},
		{"empty event", `{"event":"","data":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeJoinRoom(t *testing.T) {
	env, err := Decode([]byte(`{"event":"join-room","data":{"roomid":"r1","name":"Alice"}}`))
	require.NoError(t, err)

	p, err := DecodeJoinRoom(env)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.RoomID)
	assert.Equal(t, "Alice", p.Name)
}

func TestDecodeJoinRoomValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing roomid", `{"name":"Alice"}`},
		{"missing name", `{"roomid":"r1"}`},
		{"both empty", `{"roomid":"","name":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJoinRoom(Envelope{Event: EventJoinRoom, Data: []byte(tt.data)})
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeCodeChange(t *testing.T) {
	env := Envelope{Event: EventCodeChange, Data: []byte(`{"roomid":"r1","code":"x=1","language":"python"}`)}

	p, err := DecodeCodeChange(env)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.RoomID)
	assert.Equal(t, "x=1", p.Code)
	assert.Equal(t, "python", p.Language)
}

func TestDecodeCodeChangeAllowsEmptyCode(t *testing.T) {
	env := Envelope{Event: EventCodeChange, Data: []byte(`{"roomid":"r1","code":"","language":"go"}`)}

	p, err := DecodeCodeChange(env)
	require.NoError(t, err)
	assert.Empty(t, p.Code)
}

func TestDecodeCodeChangeRequiresRoom(t *testing.T) {
	env := Envelope{Event: EventCodeChange, Data: []byte(`{"code":"x=1","language":"python"}`)}

	_, err := DecodeCodeChange(env)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeLanguageChangeValidation(t *testing.T) {
	_, err := DecodeLanguageChange(Envelope{Event: EventLanguageChange, Data: []byte(`{"roomid":"r1"}`)})
	require.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeLanguageChange(Envelope{Event: EventLanguageChange, Data: []byte(`{"language":"go"}`)})
	require.ErrorIs(t, err, ErrMalformed)

	p, err := DecodeLanguageChange(Envelope{Event: EventLanguageChange, Data: []byte(`{"roomid":"r1","language":"go"}`)})
	require.NoError(t, err)
	assert.Equal(t, "go", p.Language)
}

func TestDecodePayloadMissing(t *testing.T) {
	_, err := DecodeJoinRoom(Envelope{Event: EventJoinRoom})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestEncode(t *testing.T) {
	raw, err := Encode(EventCodeUpdate, CodeUpdate{Code: "x=1", Language: "python"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"code-update","data":{"code":"x=1","language":"python"}}`, string(raw))
}

func TestEncodeStringPayload(t *testing.T) {
	raw, err := Encode(EventErrorMessage, "nope")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"error-message","data":"nope"}`, string(raw))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw, err := Encode(EventClientsUpdate, []RosterEntry{{ClientID: "c1", Name: "Alice"}})
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, EventClientsUpdate, env.Event)
}
