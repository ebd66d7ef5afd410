package session

import (
	"encoding/json"
	"time"
)

// MaxOccupants es la capacidad fija de una sala: exactamente dos asientos
const MaxOccupants = 2

// Side es el lado asignado a un ocupante según su orden de llegada
type Side string

const (
	SideWhite Side = "white" // primer ocupante
	SideBlack Side = "black" // segundo ocupante
)

// Occupant vincula una conexión con su lado dentro de una sala
type Occupant struct {
	ID   string `json:"id"`
	Side Side   `json:"side"`
}

// Room es una sesión con hasta dos ocupantes y su historial de movimientos.
// El movimiento es opaco: el servidor nunca lo interpreta.
type Room struct {
	ID           string
	occupants    []Occupant
	moves        []json.RawMessage
	lastActivity time.Time
}

// Full indica si ambos asientos están ocupados
func (r *Room) Full() bool {
	return len(r.occupants) >= MaxOccupants
}

// Has indica si la conexión ya ocupa un asiento en la sala
func (r *Room) Has(connID string) bool {
	for _, o := range r.occupants {
		if o.ID == connID {
			return true
		}
	}
	return false
}

// Seat sienta la conexión en el próximo asiento libre. El primer ocupante
// siempre recibe el lado blanco y el segundo el negro. Devuelve false si la
// sala está llena, sin mutar nada.
func (r *Room) Seat(connID string) (Occupant, bool) {
	if r.Full() {
		return Occupant{}, false
	}

	side := SideWhite
	if len(r.occupants) > 0 {
		side = SideBlack
	}

	occ := Occupant{ID: connID, Side: side}
	r.occupants = append(r.occupants, occ)
	return occ, true
}

// remove quita la conexión de la sala; devuelve true si ocupaba un asiento
func (r *Room) remove(connID string) bool {
	for i, o := range r.occupants {
		if o.ID == connID {
			r.occupants = append(r.occupants[:i], r.occupants[i+1:]...)
			return true
		}
	}
	return false
}

// Occupants devuelve los ocupantes en orden de llegada
func (r *Room) Occupants() []Occupant {
	return r.occupants
}

// AppendMove agrega un movimiento al final del historial (orden FIFO)
func (r *Room) AppendMove(move json.RawMessage) {
	r.moves = append(r.moves, move)
}

// Moves devuelve el historial de movimientos en orden de envío
func (r *Room) Moves() []json.RawMessage {
	return r.moves
}

// ClearMoves vacía el historial; los asientos no se tocan
func (r *Room) ClearMoves() {
	r.moves = nil
}

// Touch registra actividad en la sala, usada por el barrido de inactividad
func (r *Room) Touch(now time.Time) {
	r.lastActivity = now
}

// Store mantiene todas las salas en memoria. Es propiedad exclusiva del
// bucle del hub: ningún otro contexto de ejecución lo accede, así que no
// necesita sincronización.
type Store struct {
	rooms map[string]*Room
}

// NewStore crea un almacén de salas vacío
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate devuelve la sala con ese ID, creándola vacía si no existe
func (s *Store) GetOrCreate(roomID string, now time.Time) *Room {
	if room, ok := s.rooms[roomID]; ok {
		return room
	}

	room := &Room{
		ID:           roomID,
		lastActivity: now,
	}
	s.rooms[roomID] = room
	return room
}

// Get devuelve la sala con ese ID, si existe
func (s *Store) Get(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// RemoveOccupant quita la conexión de todas las salas donde ocupe un
// asiento y devuelve solo las salas que realmente mutaron
func (s *Store) RemoveOccupant(connID string) []*Room {
	var changed []*Room
	for _, room := range s.rooms {
		if room.remove(connID) {
			changed = append(changed, room)
		}
	}
	return changed
}

// SweepIdle elimina las salas vacías sin actividad desde hace más de ttl y
// devuelve sus IDs. Las salas ocupadas nunca se eliminan.
func (s *Store) SweepIdle(ttl time.Duration, now time.Time) []string {
	var removed []string
	for id, room := range s.rooms {
		if len(room.occupants) == 0 && now.Sub(room.lastActivity) > ttl {
			delete(s.rooms, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Len devuelve la cantidad de salas retenidas
func (s *Store) Len() int {
	return len(s.rooms)
}

// Reset descarta todas las salas; pensado para pruebas
func (s *Store) Reset() {
	s.rooms = make(map[string]*Room)
}
