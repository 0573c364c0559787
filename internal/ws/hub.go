package ws

import (
	"errors"
	"log"
	"sync"

	"neighbourly-service/internal/models"
	"neighbourly-service/internal/observability"
)

var ErrSubscriptionFailed = errors.New("realtime subscription failed")

// Hub maintains the active chat sessions, keyed by chat id. Events are
// delivered to each session's queue and merged through its timeline before
// hitting the wire, so duplicate or replayed deliveries are filtered
// per-viewer.
type Hub struct {
	rooms map[int]map[*Session]bool
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[*Session]bool)}
}

// Register adds a session to its chat room. Registering the same session
// twice is a no-op; the return value reports whether the session was added.
func (h *Hub) Register(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[s.chatID]; !ok {
		h.rooms[s.chatID] = make(map[*Session]bool)
	}
	if h.rooms[s.chatID][s] {
		return false
	}
	h.rooms[s.chatID][s] = true
	return true
}

// Unregister removes a session and drops empty rooms.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sessions, ok := h.rooms[s.chatID]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.rooms, s.chatID)
		}
	}
}

// BroadcastMessage delivers a stored message to every session on the chat.
func (h *Hub) BroadcastMessage(chatID int, msg models.Message) {
	h.broadcast(chatID, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastLifecycle notifies sessions that the chat's lifecycle advanced.
func (h *Hub) BroadcastLifecycle(chat models.Chat) {
	h.broadcast(chat.ID, models.ChatEvent{Type: "lifecycle", Chat: &chat})
}

func (h *Hub) broadcast(chatID int, event models.ChatEvent) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.rooms[chatID]))
	for s := range h.rooms[chatID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if !s.enqueue(event) {
			log.Printf("websocket queue full, dropping event conn=%s chat=%d", s.Info.ConnID, chatID)
			observability.IncWSEvent("ws_drop")
		}
	}
}
