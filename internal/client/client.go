package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ac8628026/Chess-Backend/internal/errors"
	"github.com/ac8628026/Chess-Backend/internal/interfaces"
	"github.com/ac8628026/Chess-Backend/internal/logger"
	"github.com/ac8628026/Chess-Backend/pkg/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client representa una conexión de cliente WebSocket
type Client struct {
	ID   string
	Hub  interfaces.Hub
	Conn *websocket.Conn
	Send chan []byte

	ctx context.Context
}

// NewClient crea un cliente sobre una conexión ya actualizada
func NewClient(id string, hub interfaces.Hub, conn *websocket.Conn, ctx context.Context) *Client {
	return &Client{
		ID:   id,
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
		ctx:  ctx,
	}
}

// GetID implements interfaces.Client
func (c *Client) GetID() string {
	return c.ID
}

// GetSendChannel implements interfaces.Client
func (c *Client) GetSendChannel() chan []byte {
	return c.Send
}

// GetConnection implements interfaces.Client
func (c *Client) GetConnection() *websocket.Conn {
	return c.Conn
}

// ReadPump lee los mensajes del WebSocket, valida su forma en la frontera y
// los despacha al Hub ya tipados. El núcleo nunca ve un payload malformado.
func (c *Client) ReadPump() {
	defer func() {
		// Al terminar la lectura la conexión se considera desconectada:
		// el Hub libera todos los asientos que ocupaba
		if c.Hub != nil {
			c.Hub.UnregisterClient(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				logger.Warn("Conexión cerrada inesperadamente", logger.Fields{
					"clientID": c.ID,
					"error":    err.Error(),
				})
			}
			break
		}

		var envelope models.Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			errors.InvalidMessage(c.Send, c.ID)
			continue
		}

		c.dispatch(&envelope)
	}
}

// dispatch valida el payload según el tipo de evento y lo entrega al Hub
func (c *Client) dispatch(envelope *models.Envelope) {
	switch envelope.Type {
	case models.EventJoinRoom:
		var payload models.JoinRoomPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.RoomID == "" {
			errors.InvalidPayload(c.Send, "falta roomId", c.ID)
			return
		}
		c.Hub.JoinRoom(c, payload.RoomID)

	case models.EventMove:
		var payload models.MovePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.RoomID == "" || len(payload.Move) == 0 {
			errors.InvalidPayload(c.Send, "falta roomId o move", c.ID)
			return
		}
		c.Hub.RelayMove(c, payload.RoomID, payload.Move)

	case models.EventGameEnd:
		var payload models.GameEndPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.RoomID == "" {
			errors.InvalidPayload(c.Send, "falta roomId", c.ID)
			return
		}
		c.Hub.BroadcastGameEnd(c, payload.RoomID, payload.Status)

	case models.EventRequestRematch:
		var payload models.RematchPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil || payload.RoomID == "" {
			errors.InvalidPayload(c.Send, "falta roomId", c.ID)
			return
		}
		c.Hub.RequestRematch(c, payload.RoomID)

	case models.EventOffer, models.EventAnswer, models.EventIceCandidate:
		// La señal lleva la sala incrustada; el resto viaja intacto
		var tag models.SignalRoom
		if err := json.Unmarshal(envelope.Payload, &tag); err != nil || tag.Room == "" {
			errors.InvalidPayload(c.Send, "falta room en la señal", c.ID)
			return
		}
		c.Hub.RelaySignal(c, envelope.Type, tag.Room, envelope.Payload)

	default:
		errors.UnknownEventType(c.Send, envelope.Type, c.ID)
	}
}

// WritePump maneja el envío de mensajes al WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// El canal Send está cerrado
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Añadir cualquier mensaje pendiente en el canal
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
