package interfaces

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// Hub defines the interface for hub operations needed by clients
type Hub interface {
	// RegisterClient adds a newly connected client to the hub
	RegisterClient(client Client)

	// UnregisterClient removes a client and frees every seat it occupies
	UnregisterClient(client Client)

	// JoinRoom seats a client in a room, creating the room if needed
	JoinRoom(client Client, roomID string)

	// RelayMove records a move and forwards it to the rest of the room
	RelayMove(client Client, roomID string, move json.RawMessage)

	// BroadcastGameEnd forwards a game-end status to the whole room
	BroadcastGameEnd(client Client, roomID string, status json.RawMessage)

	// RequestRematch clears a room's move history and notifies both players
	RequestRematch(client Client, roomID string)

	// RelaySignal forwards a WebRTC signaling payload to the rest of the room
	RelaySignal(client Client, event string, roomID string, payload json.RawMessage)
}

// Client defines the interface for client operations needed by the hub
type Client interface {
	// GetID returns the client's unique identifier
	GetID() string

	// GetSendChannel returns the client's message sending channel
	GetSendChannel() chan []byte

	// GetConnection returns the client's websocket connection
	GetConnection() *websocket.Conn
}
