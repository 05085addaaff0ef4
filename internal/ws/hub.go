package ws

import (
	"encoding/json"
	"sync"

	"learnhub-chat/internal/models"
	"learnhub-chat/internal/observability"
)

// Hub is the process-local broadcast registry: room id to the set of live
// sessions subscribed to it. State is not persisted; clients reconnect after
// a restart and re-read history over HTTP.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Session]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int64]map[*Session]struct{})}
}

// Join registers a session with its room.
func (h *Hub) Join(roomID int64, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Session]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
}

// Leave removes a session from its room. Removing a session that was never
// registered, or was already removed, is a no-op.
func (h *Hub) Leave(roomID int64, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sessions, ok := h.rooms[roomID]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Count reports the number of live sessions in a room.
func (h *Hub) Count(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast fans a frame out to every session in the room, including the
// sender's own. The session set is snapshotted first, so joins and leaves
// during the fan-out cannot fail it. Delivery is fire-and-forget per
// recipient: one that is closed or too slow is dropped from the room without
// affecting the rest.
func (h *Hub) Broadcast(roomID int64, frame models.OutboundFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if !s.Enqueue(payload) {
			s.Close()
			h.Leave(roomID, s)
			observability.IncWSEvent("ws_drop")
		}
	}
}
