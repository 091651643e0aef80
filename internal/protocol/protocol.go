package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound event names (client -> server).
const (
	EventJoinRoom       = "join-room"
	EventCodeChange     = "code-change"
	EventLanguageChange = "language-change"
)

// Outbound event names (server -> client).
const (
	EventClientsUpdate  = "clients-update"
	EventCodeUpdate     = "code-update"
	EventLanguageUpdate = "language-update"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventErrorMessage   = "error-message"
)

var (
	// ErrMalformed marks frames that fail to decode or validate.
	ErrMalformed = errors.New("malformed event")

	// ErrUnknownEvent marks frames with an event name outside the
	// supported set.
	ErrUnknownEvent = errors.New("unknown event")
)

var validate = validator.New()

// Envelope is the wire frame: a tagged event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom asks to enter a room under a display name. Both fields are
// required; neither is validated for uniqueness or collisions.
type JoinRoom struct {
	RoomID string `json:"roomid" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// CodeChange carries a full replacement of a room's document. Only the
// room id is required; code may legitimately be empty.
type CodeChange struct {
	RoomID   string `json:"roomid" validate:"required"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// LanguageChange switches a room's language tag without touching the
// document text.
type LanguageChange struct {
	RoomID   string `json:"roomid" validate:"required"`
	Language string `json:"language" validate:"required"`
}

// RosterEntry is one participant in a clients-update payload.
type RosterEntry struct {
	ClientID string `json:"clientid"`
	Name     string `json:"name"`
}

// CodeUpdate is the authoritative document snapshot sent to joiners and
// rebroadcast after edits.
type CodeUpdate struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type LanguageUpdate struct {
	Language string `json:"language"`
}

// Decode parses a raw frame into its envelope. The payload stays raw
// until the event-specific decoder runs.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrMalformed)
	}
	return env, nil
}

// Encode builds a wire frame for an outbound event.
func Encode(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	raw, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return raw, nil
}

func decodePayload(env Envelope, into any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrMalformed, env.Event)
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Event, err)
	}
	if err := validate.Struct(into); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Event, err)
	}
	return nil
}

// DecodeJoinRoom validates and extracts a join-room payload.
func DecodeJoinRoom(env Envelope) (JoinRoom, error) {
	var p JoinRoom
	err := decodePayload(env, &p)
	return p, err
}

// DecodeCodeChange validates and extracts a code-change payload.
func DecodeCodeChange(env Envelope) (CodeChange, error) {
	var p CodeChange
	err := decodePayload(env, &p)
	return p, err
}

// DecodeLanguageChange validates and extracts a language-change payload.
func DecodeLanguageChange(env Envelope) (LanguageChange, error) {
	var p LanguageChange
	err := decodePayload(env, &p)
	return p, err
}
