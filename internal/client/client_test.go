package client

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ac8628026/Chess-Backend/internal/interfaces"
	"github.com/ac8628026/Chess-Backend/internal/logger"
	"github.com/ac8628026/Chess-Backend/pkg/models"
)

func TestMain(m *testing.M) {
	logger.Initialize()
	os.Exit(m.Run())
}

// fakeHub registra las llamadas que el cliente despacha
type fakeHub struct {
	joins    []string
	moves    []models.MovePayload
	gameEnds []models.GameEndPayload
	rematch  []string
	signals  []signalCall
}

type signalCall struct {
	event   string
	roomID  string
	payload json.RawMessage
}

func (f *fakeHub) RegisterClient(interfaces.Client)   {}
func (f *fakeHub) UnregisterClient(interfaces.Client) {}

func (f *fakeHub) JoinRoom(_ interfaces.Client, roomID string) {
	f.joins = append(f.joins, roomID)
}

func (f *fakeHub) RelayMove(_ interfaces.Client, roomID string, move json.RawMessage) {
	f.moves = append(f.moves, models.MovePayload{RoomID: roomID, Move: move})
}

func (f *fakeHub) BroadcastGameEnd(_ interfaces.Client, roomID string, status json.RawMessage) {
	f.gameEnds = append(f.gameEnds, models.GameEndPayload{RoomID: roomID, Status: status})
}

func (f *fakeHub) RequestRematch(_ interfaces.Client, roomID string) {
	f.rematch = append(f.rematch, roomID)
}

func (f *fakeHub) RelaySignal(_ interfaces.Client, event string, roomID string, payload json.RawMessage) {
	f.signals = append(f.signals, signalCall{event: event, roomID: roomID, payload: payload})
}

func newTestClient() (*Client, *fakeHub) {
	h := &fakeHub{}
	return NewClient("conn-test", h, nil, context.Background()), h
}

func dispatchRaw(t *testing.T, c *Client, frame string) {
	t.Helper()
	var env models.Envelope
	require.NoError(t, json.Unmarshal([]byte(frame), &env))
	c.dispatch(&env)
}

// recvError decodifica el error pendiente en el canal del cliente
func recvError(t *testing.T, c *Client) models.ErrorPayload {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env models.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		require.Equal(t, models.EventError, env.Type)

		var payload models.ErrorPayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		return payload
	default:
		t.Fatal("se esperaba un error pendiente y no hay ninguno")
		return models.ErrorPayload{}
	}
}

func TestDispatchJoinRoom(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"join-room","payload":{"roomId":"r1"}}`)

	require.Len(t, h.joins, 1)
	assert.Equal(t, "r1", h.joins[0])
	assert.Empty(t, c.Send)
}

func TestDispatchJoinRoomWithoutRoomID(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"join-room","payload":{}}`)

	assert.Empty(t, h.joins)
	payload := recvError(t, c)
	assert.Equal(t, "ERROR_INVALID_PAYLOAD", payload.Code)
}

func TestDispatchMove(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"move","payload":{"roomId":"r1","move":{"from":"e2","to":"e4"}}}`)

	require.Len(t, h.moves, 1)
	assert.Equal(t, "r1", h.moves[0].RoomID)
	assert.JSONEq(t, `{"from":"e2","to":"e4"}`, string(h.moves[0].Move))
}

func TestDispatchMoveWithoutMove(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"move","payload":{"roomId":"r1"}}`)

	assert.Empty(t, h.moves)
	payload := recvError(t, c)
	assert.Equal(t, "ERROR_INVALID_PAYLOAD", payload.Code)
}

func TestDispatchGameEnd(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"gameEnd","payload":{"roomId":"r1","status":"checkmate"}}`)

	require.Len(t, h.gameEnds, 1)
	assert.Equal(t, "r1", h.gameEnds[0].RoomID)
	assert.JSONEq(t, `"checkmate"`, string(h.gameEnds[0].Status))
}

func TestDispatchRematch(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"requestRematch","payload":{"roomId":"r1"}}`)

	require.Len(t, h.rematch, 1)
	assert.Equal(t, "r1", h.rematch[0])
}

func TestDispatchSignalExtractsRoom(t *testing.T) {
	c, h := newTestClient()

	frame := `{"type":"offer","payload":{"room":"r1","sdp":"v=0"}}`
	dispatchRaw(t, c, frame)

	require.Len(t, h.signals, 1)
	assert.Equal(t, "offer", h.signals[0].event)
	assert.Equal(t, "r1", h.signals[0].roomID)

	// El payload viaja completo, con la sala incrustada incluida
	assert.JSONEq(t, `{"room":"r1","sdp":"v=0"}`, string(h.signals[0].payload))
}

func TestDispatchSignalWithoutRoom(t *testing.T) {
	c, h := newTestClient()

	dispatchRaw(t, c, `{"type":"ice-candidate","payload":{"candidate":"..."}}`)

	assert.Empty(t, h.signals)
	payload := recvError(t, c)
	assert.Equal(t, "ERROR_INVALID_PAYLOAD", payload.Code)
}

func TestDispatchUnknownEvent(t *testing.T) {
	c, _ := newTestClient()

	dispatchRaw(t, c, `{"type":"teleport","payload":{}}`)

	payload := recvError(t, c)
	assert.Equal(t, "ERROR_UNKNOWN_EVENT_TYPE", payload.Code)
}
