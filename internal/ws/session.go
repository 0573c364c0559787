package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"neighbourly-service/internal/models"
	"neighbourly-service/internal/timeline"
)

const sessionQueueSize = 64

// Session is one viewer's live connection to a chat. It owns the connection's
// write side: every outbound event passes through the queue and, for message
// events, the viewer's timeline merge, so replayed or duplicated deliveries
// never reach the wire twice.
type Session struct {
	Info     ConnInfo
	chatID   int
	conn     *websocket.Conn
	timeline *timeline.Timeline

	events    chan models.ChatEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession builds a session around an upgraded connection.
func NewSession(chatID int, conn *websocket.Conn, tl *timeline.Timeline, info ConnInfo) *Session {
	return &Session{
		Info:     info,
		chatID:   chatID,
		conn:     conn,
		timeline: tl,
		events:   make(chan models.ChatEvent, sessionQueueSize),
		done:     make(chan struct{}),
	}
}

// Timeline exposes the session's merge engine.
func (s *Session) Timeline() *timeline.Timeline {
	return s.timeline
}

// Close tears the session down. Events enqueued after Close are discarded;
// in-flight results for a closed session never reach the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// enqueue offers an event to the session without blocking the broadcaster.
func (s *Session) enqueue(event models.ChatEvent) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.events <- event:
		return true
	case <-s.done:
		return true
	default:
		return false
	}
}

// writeLoop drains the event queue onto the connection until the session
// closes. Message events are merged through the timeline first; an event the
// merge rejects as a duplicate is dropped silently.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			// Only broadcast deliveries go through the merge; confirmation
			// events carry a row the timeline already holds.
			if event.Type == "message" && event.Message != nil && !s.timeline.OnInsert(*event.Message) {
				continue
			}
			if event.Type == "snapshot" {
				// Computed at write time so anything merged off the queue
				// ahead of it is included.
				event.Messages = s.timeline.Snapshot()
			}
			if err := s.conn.WriteJSON(event); err != nil {
				s.Close()
				return
			}
		}
	}
}
