package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"neighbourly-service/internal/auth"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/observability"
	"neighbourly-service/internal/repositories"
	"neighbourly-service/internal/timeline"
)

// ChatWebSocketHandler upgrades chat connections and runs one sync session
// per connection.
type ChatWebSocketHandler struct {
	hub         *Hub
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	tokens      *auth.Tokens
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, tokens *auth.Tokens) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chatRepo: chatRepo, messageRepo: messageRepo, tokens: tokens}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Handle authenticates, upgrades, and serves the connection until it closes.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := observability.Tracer().Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.id", chatID))
	c.Request = c.Request.WithContext(ctx)

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	userID, err := h.tokens.Parse(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed chat=%d: %v", chatID, errors.Join(ErrSubscriptionFailed, err))
		observability.IncWSEvent("ws_subscribe_failed")
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	tl := timeline.New(chatID, userID, repoFetcher{repo: h.messageRepo}, repoSender{repo: h.messageRepo})
	session := NewSession(chatID, conn, tl, info)

	// Register before the bulk fetch: inserts landing in between queue up
	// and the id-based merge discards whatever the fetch already covered.
	h.hub.Register(session)

	// Degraded mode on a failed initial load: the connection stays up for
	// realtime delivery and the client may retry the bulk fetch.
	snapshotEvent := models.ChatEvent{Type: "snapshot"}
	if err := tl.LoadInitial(ctx); err != nil {
		snapshotEvent = models.ChatEvent{Type: "sync_error", Error: "initial message load failed"}
		observability.IncWSEvent("ws_sync_error")
	}
	session.enqueue(snapshotEvent)

	// net/http cancels the request context as soon as the handler returns
	// on a hijacked connection; the session's reads, inserts, and publishes
	// outlive the handler and need a context that survives it.
	sessionCtx := context.WithoutCancel(ctx)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishConnEvent(sessionCtx, "ws_connect", chatID, info, "")

	go session.writeLoop()
	go h.readLoop(sessionCtx, session, conn, chatID)
}

func (h *ChatWebSocketHandler) readLoop(ctx context.Context, session *Session, conn *websocket.Conn, chatID int) {
	var closeReason string
	defer func() {
		h.hub.Unregister(session)
		session.Close()
		conn.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishConnEvent(ctx, "ws_disconnect", chatID, session.Info, closeReason)
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishConnEvent(ctx, "ws_error", chatID, session.Info, closeReason)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil || frame.Type != "message" {
			continue
		}
		h.handleSend(ctx, session, chatID, frame.Content)
	}
}

// handleSend runs the optimistic send path: append locally, confirm against
// the store, roll back and return the draft on failure, broadcast on success.
func (h *ChatWebSocketHandler) handleSend(ctx context.Context, session *Session, chatID int, content string) {
	tl := session.Timeline()
	provisional, err := tl.AppendOptimistic(content)
	if err != nil {
		session.enqueue(models.ChatEvent{Type: "send_failed", Error: err.Error()})
		return
	}

	stored, err := tl.ConfirmSend(ctx, provisional.ID)
	if err != nil {
		event := models.ChatEvent{Type: "send_failed", Error: "message send failed"}
		var sendErr *timeline.SendError
		if errors.As(err, &sendErr) {
			event.Draft = sendErr.Draft
		}
		session.enqueue(event)
		observability.IncWSEvent("ws_send_failed")
		return
	}

	// The sender's timeline already merged the stored row in ConfirmSend, so
	// the broadcast copy is deduped away for them. The confirmation event
	// hands back the authoritative id and created_at for their local entry.
	session.enqueue(models.ChatEvent{Type: "message_sent", Message: &stored})
	h.hub.BroadcastMessage(chatID, stored)
	observability.IncWSEvent("ws_message")
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:]
	}
	return c.Query("token")
}

func (h *ChatWebSocketHandler) publishConnEvent(ctx context.Context, event string, chatID int, info ConnInfo, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"chat_id":     chatID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}
