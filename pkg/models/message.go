package models

import (
	"encoding/json"
)

// Inbound event types (client -> server)
const (
	EventJoinRoom       = "join-room"
	EventMove           = "move"
	EventGameEnd        = "gameEnd"
	EventRequestRematch = "requestRematch"
	EventOffer          = "offer"
	EventAnswer         = "answer"
	EventIceCandidate   = "ice-candidate"
)

// Outbound event types (server -> client)
const (
	EventPlayerSide = "playerSide"
	EventRoomFull   = "roomfull"
	EventStartGame  = "startGame"
	EventMessage    = "message"
	EventNewRoom    = "NewRoom"
	EventError      = "error"
)

// Envelope is the frame exchanged in both directions: an event name plus an
// event-specific payload that is decoded lazily.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal builds a wire frame from an event type and an already-marshalable
// payload. A nil payload produces an envelope without one.
func Marshal(eventType string, payload interface{}) ([]byte, error) {
	env := Envelope{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// JoinRoomPayload carries the room a connection wants to join.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

// MovePayload carries one opaque game move tagged with its room. The move is
// never interpreted by the server.
type MovePayload struct {
	RoomID string          `json:"roomId"`
	Move   json.RawMessage `json:"move"`
}

// GameEndPayload announces the end state of a game to the whole room.
type GameEndPayload struct {
	RoomID string          `json:"roomId"`
	Status json.RawMessage `json:"status"`
}

// RematchPayload asks the server to reset a room's move history.
type RematchPayload struct {
	RoomID string `json:"roomId"`
}

// SignalRoom extracts only the room tag from a WebRTC signaling payload; the
// rest of the payload is relayed untouched.
type SignalRoom struct {
	Room string `json:"room"`
}

// PlayerInfo identifies one occupant and the side it plays.
type PlayerInfo struct {
	ID   string `json:"id"`
	Side string `json:"side"`
}

// ErrorPayload is sent when a frame is rejected at the boundary.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
