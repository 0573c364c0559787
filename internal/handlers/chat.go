package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/observability"
	"neighbourly-service/internal/repositories"
	"neighbourly-service/internal/reviews"
	"neighbourly-service/internal/telemetry"
	"neighbourly-service/internal/ws"
)

// ChatHandler manages chat threads, lifecycle transitions, and messages.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	requestRepo repositories.RequestRepository
	engine      *lifecycle.Engine
	workflow    *reviews.Workflow
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, requestRepo repositories.RequestRepository, engine *lifecycle.Engine, workflow *reviews.Workflow, hub *ws.Hub, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		requestRepo: requestRepo,
		engine:      engine,
		workflow:    workflow,
		hub:         hub,
		audit:       audit,
	}
}

type chatResponse struct {
	models.Chat
	State         string `json:"state"`
	FullyReviewed bool   `json:"fully_reviewed"`
}

func toChatResponse(chat models.Chat) chatResponse {
	return chatResponse{
		Chat:          chat,
		State:         lifecycle.StateOf(chat),
		FullyReviewed: lifecycle.IsFullyReviewed(chat),
	}
}

// StartChat finds or creates the thread between the caller and the request's
// author. The caller becomes the helper; the request author is the
// requester.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		RequestID int `json:"request_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	request, err := h.requestRepo.GetRequest(c.Request.Context(), req.RequestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "request not found"})
		return
	}
	if request.AuthorID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot offer help on your own request"})
		return
	}

	requestID := request.ID
	chat, err := h.chatRepo.FindOrCreateChat(c.Request.Context(), &requestID, request.AuthorID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusOK, toChatResponse(chat))
}

// ListChats returns the caller's chat threads with lifecycle state.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")
	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		responses = append(responses, toChatResponse(chat))
	}
	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// GetChat returns one thread. Loading a chat runs the review reconcile pass,
// repairing any review whose lifecycle slot update was interrupted.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	chat, _, err := h.workflow.Reconcile(c.Request.Context(), chatID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "chat not found"})
		return
	}
	if _, err := lifecycle.RoleOf(chat, userID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	receipts, err := h.messageRepo.ListReceipts(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load receipts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": toChatResponse(chat), "receipts": receipts})
}

// MakeOffer records the helper's offer on the chat.
func (h *ChatHandler) MakeOffer(c *gin.Context) {
	h.transition(c, "make_offer", h.engine.MakeOffer)
}

// AcceptOffer records the requester's acceptance.
func (h *ChatHandler) AcceptOffer(c *gin.Context) {
	h.transition(c, "accept_offer", h.engine.AcceptOffer)
}

// GetMessages returns a chat's messages ascending by creation time. The
// optional after parameter accepts RFC3339 timestamps with or without
// fractional seconds.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")
	if !h.requireParticipant(c, chatID, userID) {
		return
	}

	var after *time.Time
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after timestamp"})
			return
		}
		after = &parsed
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chatID, after)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a chat message and broadcasts it to live sessions.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !h.requireParticipant(c, chatID, userID) {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chatID, userID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(chatID, msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead upserts the caller's read receipt for the chat.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")
	if !h.requireParticipant(c, chatID, userID) {
		return
	}

	receipt, err := h.messageRepo.MarkRead(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record receipt"})
		return
	}
	c.JSON(http.StatusOK, receipt)
}

type transitionFunc func(ctx context.Context, chatID int, actorID int) (models.Chat, error)

func (h *ChatHandler) transition(c *gin.Context, name string, fn transitionFunc) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}

	chat, err := fn(c.Request.Context(), chatID, userID)
	if err != nil {
		observability.IncLifecycleTransition(name, outcomeLabel(err))
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}

	observability.IncLifecycleTransition(name, "ok")
	h.audit.Emit(c.Request.Context(), "INFO", "chat "+name, requestIDFromContext(c), userIDFromContext(c))
	h.hub.BroadcastLifecycle(chat)
	c.JSON(http.StatusOK, toChatResponse(chat))
}

func (h *ChatHandler) chatIDParam(c *gin.Context) (int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

func (h *ChatHandler) requireParticipant(c *gin.Context, chatID int, userID int) bool {
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return false
	}
	return true
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrRoleMismatch):
		return "role_mismatch"
	case errors.Is(err, lifecycle.ErrAlreadyOffered):
		return "already_offered"
	case errors.Is(err, lifecycle.ErrAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, lifecycle.ErrAlreadyReviewed):
		return "already_reviewed"
	case errors.Is(err, lifecycle.ErrOfferNotYetMade):
		return "offer_not_yet_made"
	case errors.Is(err, lifecycle.ErrOfferNotAccepted):
		return "offer_not_accepted"
	}
	return "error"
}
