package hub

import (
	"sync"

	pkglog "github.com/meetsync/signal-server/pkg/log"
)

// Hub owns the connection table and the room registry: roomID -> the set of
// member clients. A connection is a member of at most one room. Join, leave,
// and broadcast for a room run under one mutex, so a broadcast never sees a
// stale member snapshot.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // clientID -> client
	rooms   map[string]map[string]*Client // roomID -> clientID -> client
	roomOf  map[string]string             // clientID -> roomID
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		roomOf:  make(map[string]string),
	}
}

// Register adds a connected client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if client.quit == nil {
		client.quit = make(chan struct{})
	}
	h.clients[client.ID] = client
	h.mu.Unlock()
	pkglog.L().Debug().Str(pkglog.FieldConnectionID, client.ID).Msg("client registered")
}

// Unregister removes a client from the hub and from its room, if any. Safe
// to call more than once for the same client. The Send channel stays open
// so concurrent sends cannot panic; WritePump exits via the quit signal.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		h.removeFromRoomLocked(client.ID)
		delete(h.clients, client.ID)
		client.shutdown()
	}
	h.mu.Unlock()
	pkglog.L().Debug().Str(pkglog.FieldConnectionID, client.ID).Msg("client unregistered")
}

// JoinRoom adds a client to a room, creating the room on first join, and
// returns a snapshot of the members that were present before this join.
// A client already in the room is left untouched and the snapshot is nil,
// so callers can tell a fresh join from a duplicate. A client in a
// different room is moved (membership is exclusive).
func (h *Hub) JoinRoom(client *Client, roomID string) (existing []*Client, alreadyMember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.roomOf[client.ID]; ok {
		if current == roomID {
			return nil, true
		}
		h.removeFromRoomLocked(client.ID)
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}

	existing = make([]*Client, 0, len(members))
	for _, member := range members {
		existing = append(existing, member)
	}

	members[client.ID] = client
	h.roomOf[client.ID] = roomID

	pkglog.L().Info().
		Str(pkglog.FieldConnectionID, client.ID).
		Str(pkglog.FieldMeetingID, roomID).
		Int("members", len(members)).
		Msg("client joined room")
	return existing, false
}

// LeaveRoom removes a client from a room. Reports whether the client was a
// member; leaving a room it never joined is a no-op.
func (h *Hub) LeaveRoom(client *Client, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.roomOf[client.ID] != roomID {
		return false
	}
	h.removeFromRoomLocked(client.ID)

	pkglog.L().Info().
		Str(pkglog.FieldConnectionID, client.ID).
		Str(pkglog.FieldMeetingID, roomID).
		Msg("client left room")
	return true
}

// MembersOf returns the current members of a room, empty when unknown.
func (h *Hub) MembersOf(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Client, 0, len(h.rooms[roomID]))
	for _, member := range h.rooms[roomID] {
		members = append(members, member)
	}
	return members
}

// IsEmpty reports whether a room has no members.
func (h *Hub) IsEmpty(roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID]) == 0
}

// RoomOf returns the room a client belongs to, or "".
func (h *Hub) RoomOf(clientID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomOf[clientID]
}

// BroadcastToRoom sends a message to every member of a room except the
// excluded client id. Unknown rooms are a silent no-op. Sends never block:
// a member whose buffer is full is dropped from the hub.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}, exclude string) error {
	data, err := encode(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var stalled []*Client
	for clientID, client := range h.rooms[roomID] {
		if clientID == exclude {
			continue
		}
		if !client.enqueue(data) {
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		go h.Unregister(client)
	}
	return nil
}

// removeFromRoomLocked drops the client from its room and deletes the room
// once empty. Caller holds h.mu.
func (h *Hub) removeFromRoomLocked(clientID string) {
	roomID, ok := h.roomOf[clientID]
	if !ok {
		return
	}
	delete(h.roomOf, clientID)
	if members, ok := h.rooms[roomID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}
