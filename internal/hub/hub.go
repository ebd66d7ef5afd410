package hub

import (
	"encoding/json"
	"time"

	"github.com/ac8628026/Chess-Backend/internal/interfaces"
	"github.com/ac8628026/Chess-Backend/internal/logger"
	"github.com/ac8628026/Chess-Backend/internal/session"
	"github.com/ac8628026/Chess-Backend/pkg/models"
)

const (
	// DefaultRoomTTL es el tiempo que una sala vacía sobrevive antes de
	// que el barrido la elimine
	DefaultRoomTTL = 10 * time.Minute

	sweepInterval = time.Minute
)

// Textos de notificación enviados a los clientes
const (
	roomFullText      = "Room is full. Please try another room."
	matchRestartText  = "Match Restarted"
	peerLeftText      = "The other player has left. please Join New Room"
	alreadySeatedText = "Already joined this room."
)

// joinRequest representa una solicitud para unirse a una sala
type joinRequest struct {
	client interfaces.Client
	roomID string
}

// moveRequest representa un movimiento a retransmitir
type moveRequest struct {
	client interfaces.Client
	roomID string
	move   json.RawMessage
}

// gameEndRequest representa el estado final de una partida
type gameEndRequest struct {
	client interfaces.Client
	roomID string
	status json.RawMessage
}

// rematchRequest representa una solicitud de revancha
type rematchRequest struct {
	client interfaces.Client
	roomID string
}

// signalRequest representa una señal WebRTC (offer / answer / ice-candidate)
type signalRequest struct {
	client  interfaces.Client
	event   string
	roomID  string
	payload json.RawMessage
}

// Hub posee el almacén de sesiones y serializa todos los eventos entrantes
// en un único bucle. Ningún estado se toca fuera de ese bucle, así que las
// invariantes de las salas (máximo dos asientos, lados únicos) se cumplen
// sin bloqueos.
type Hub struct {
	store   *session.Store
	clients map[string]interfaces.Client
	roomTTL time.Duration

	register   chan interfaces.Client
	unregister chan interfaces.Client
	join       chan *joinRequest
	move       chan *moveRequest
	gameEnd    chan *gameEndRequest
	rematch    chan *rematchRequest
	signal     chan *signalRequest

	done chan struct{}
}

// NewHub crea un Hub sobre un almacén construido por el llamador
func NewHub(store *session.Store, roomTTL time.Duration) *Hub {
	if roomTTL <= 0 {
		roomTTL = DefaultRoomTTL
	}

	return &Hub{
		store:      store,
		clients:    make(map[string]interfaces.Client),
		roomTTL:    roomTTL,
		register:   make(chan interfaces.Client),
		unregister: make(chan interfaces.Client),
		join:       make(chan *joinRequest),
		move:       make(chan *moveRequest),
		gameEnd:    make(chan *gameEndRequest),
		rematch:    make(chan *rematchRequest),
		signal:     make(chan *signalRequest),
		done:       make(chan struct{}),
	}
}

// RegisterClient implements interfaces.Hub
func (h *Hub) RegisterClient(client interfaces.Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient implements interfaces.Hub
func (h *Hub) UnregisterClient(client interfaces.Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// JoinRoom implements interfaces.Hub
func (h *Hub) JoinRoom(client interfaces.Client, roomID string) {
	select {
	case h.join <- &joinRequest{client: client, roomID: roomID}:
	case <-h.done:
	}
}

// RelayMove implements interfaces.Hub
func (h *Hub) RelayMove(client interfaces.Client, roomID string, move json.RawMessage) {
	select {
	case h.move <- &moveRequest{client: client, roomID: roomID, move: move}:
	case <-h.done:
	}
}

// BroadcastGameEnd implements interfaces.Hub
func (h *Hub) BroadcastGameEnd(client interfaces.Client, roomID string, status json.RawMessage) {
	select {
	case h.gameEnd <- &gameEndRequest{client: client, roomID: roomID, status: status}:
	case <-h.done:
	}
}

// RequestRematch implements interfaces.Hub
func (h *Hub) RequestRematch(client interfaces.Client, roomID string) {
	select {
	case h.rematch <- &rematchRequest{client: client, roomID: roomID}:
	case <-h.done:
	}
}

// RelaySignal implements interfaces.Hub
func (h *Hub) RelaySignal(client interfaces.Client, event string, roomID string, payload json.RawMessage) {
	select {
	case h.signal <- &signalRequest{client: client, event: event, roomID: roomID, payload: payload}:
	case <-h.done:
	}
}

// Close detiene el bucle del Hub
func (h *Hub) Close() {
	close(h.done)
}

// Run inicia el bucle principal del Hub. Debe ejecutarse en una única
// goroutine: es el único contexto que accede al almacén.
func (h *Hub) Run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			logger.Info("Hub detenido", nil)
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case req := <-h.join:
			h.handleJoin(req.client, req.roomID)

		case req := <-h.move:
			h.handleMove(req.client, req.roomID, req.move)

		case req := <-h.gameEnd:
			h.handleGameEnd(req.client, req.roomID, req.status)

		case req := <-h.rematch:
			h.handleRematch(req.roomID)

		case req := <-h.signal:
			h.handleSignal(req.client, req.event, req.roomID, req.payload)

		case now := <-ticker.C:
			h.handleSweep(now)
		}
	}
}

// handleRegister registra una conexión nueva; no toca ninguna sala
func (h *Hub) handleRegister(client interfaces.Client) {
	h.clients[client.GetID()] = client
	logger.Info("Cliente registrado", logger.Fields{"clientID": client.GetID()})
}

// handleUnregister quita la conexión de todas las salas que ocupaba y avisa
// a los ocupantes restantes de cada sala que realmente mutó
func (h *Hub) handleUnregister(client interfaces.Client) {
	if _, ok := h.clients[client.GetID()]; !ok {
		return
	}
	delete(h.clients, client.GetID())
	close(client.GetSendChannel())

	now := time.Now()
	for _, room := range h.store.RemoveOccupant(client.GetID()) {
		room.Touch(now)
		h.broadcast(room, models.EventNewRoom, peerLeftText)

		logger.Info("Ocupante eliminado de la sala", logger.Fields{
			"clientID": client.GetID(),
			"roomID":   room.ID,
		})
	}

	logger.Info("Cliente desregistrado", logger.Fields{"clientID": client.GetID()})
}

// handleJoin resuelve la sala (creándola si hace falta) y asigna el asiento
// por orden de llegada
func (h *Hub) handleJoin(client interfaces.Client, roomID string) {
	now := time.Now()
	room := h.store.GetOrCreate(roomID, now)
	room.Touch(now)

	// Una conexión no puede ocupar dos asientos en la misma sala
	if room.Has(client.GetID()) {
		h.sendTo(client, models.EventMessage, alreadySeatedText)
		return
	}

	occ, ok := room.Seat(client.GetID())
	if !ok {
		// Sala llena: respuesta terminal, sin mutar la sala
		h.sendTo(client, models.EventRoomFull, roomFullText)
		logger.Info("Intento de unirse a sala llena", logger.Fields{
			"clientID": client.GetID(),
			"roomID":   roomID,
		})
		return
	}

	h.sendTo(client, models.EventPlayerSide, occ.Side)
	logger.Info("Jugador sentado", logger.Fields{
		"clientID": client.GetID(),
		"roomID":   roomID,
		"side":     string(occ.Side),
	})

	// Con ambos asientos ocupados, la partida puede comenzar
	if room.Full() {
		players := make([]models.PlayerInfo, 0, session.MaxOccupants)
		for _, o := range room.Occupants() {
			players = append(players, models.PlayerInfo{ID: o.ID, Side: string(o.Side)})
		}
		h.broadcast(room, models.EventStartGame, players)

		logger.Info("Partida iniciada", logger.Fields{"roomID": roomID})
	}
}

// handleMove agrega el movimiento al historial y lo retransmite al resto de
// la sala. Un movimiento hacia una sala desconocida se descarta.
func (h *Hub) handleMove(client interfaces.Client, roomID string, move json.RawMessage) {
	room, ok := h.store.Get(roomID)
	if !ok {
		logger.Warn("Movimiento hacia sala inexistente, descartado", logger.Fields{
			"clientID": client.GetID(),
			"roomID":   roomID,
		})
		return
	}

	room.Touch(time.Now())
	room.AppendMove(move)
	h.relayToOthers(room, client.GetID(), models.EventMove, move)
}

// handleGameEnd retransmite el estado final a toda la sala, incluido el
// remitente; no muta nada
func (h *Hub) handleGameEnd(client interfaces.Client, roomID string, status json.RawMessage) {
	room, ok := h.store.Get(roomID)
	if !ok {
		logger.Debug("gameEnd hacia sala inexistente, descartado", logger.Fields{
			"clientID": client.GetID(),
			"roomID":   roomID,
		})
		return
	}

	room.Touch(time.Now())
	h.broadcast(room, models.EventGameEnd, status)
}

// handleRematch vacía el historial de la sala y avisa a ambos ocupantes.
// Los asientos se conservan. Una sala desconocida se ignora en silencio.
func (h *Hub) handleRematch(roomID string) {
	room, ok := h.store.Get(roomID)
	if !ok {
		return
	}

	room.ClearMoves()
	room.Touch(time.Now())
	h.broadcast(room, models.EventRequestRematch, nil)
	h.broadcast(room, models.EventMessage, matchRestartText)

	logger.Info("Revancha solicitada", logger.Fields{"roomID": roomID})
}

// handleSignal retransmite la señal WebRTC al resto de la sala sin tocarla;
// el servidor nunca interpreta su contenido
func (h *Hub) handleSignal(client interfaces.Client, event string, roomID string, payload json.RawMessage) {
	room, ok := h.store.Get(roomID)
	if !ok {
		logger.Debug("Señal hacia sala inexistente, descartada", logger.Fields{
			"clientID": client.GetID(),
			"event":    event,
			"roomID":   roomID,
		})
		return
	}

	room.Touch(time.Now())
	h.relayToOthers(room, client.GetID(), event, payload)
}

// handleSweep elimina las salas vacías inactivas desde hace más del TTL
func (h *Hub) handleSweep(now time.Time) {
	removed := h.store.SweepIdle(h.roomTTL, now)
	if len(removed) > 0 {
		logger.Info("Salas inactivas eliminadas", logger.Fields{
			"rooms": removed,
			"count": len(removed),
		})
	}
}

// sendTo envía un evento a un cliente sin bloquear; si su canal está lleno
// o cerrado, el mensaje se descarta
func (h *Hub) sendTo(client interfaces.Client, eventType string, payload interface{}) {
	msgBytes, err := models.Marshal(eventType, payload)
	if err != nil {
		logger.Error("No se pudo serializar el evento", logger.Fields{
			"error": err.Error(),
			"event": eventType,
		})
		return
	}

	select {
	case client.GetSendChannel() <- msgBytes:
	default:
		logger.Warn("No se pudo enviar el evento, canal posiblemente cerrado", logger.Fields{
			"clientID": client.GetID(),
			"event":    eventType,
		})
	}
}

// broadcast envía un evento a todos los ocupantes de la sala
func (h *Hub) broadcast(room *session.Room, eventType string, payload interface{}) {
	for _, occ := range room.Occupants() {
		if client, ok := h.clients[occ.ID]; ok {
			h.sendTo(client, eventType, payload)
		}
	}
}

// relayToOthers envía un evento a todos los ocupantes salvo el remitente;
// así el remitente nunca recibe de vuelta su propio mensaje
func (h *Hub) relayToOthers(room *session.Room, senderID string, eventType string, payload interface{}) {
	for _, occ := range room.Occupants() {
		if occ.ID == senderID {
			continue
		}
		if client, ok := h.clients[occ.ID]; ok {
			h.sendTo(client, eventType, payload)
		}
	}
}
