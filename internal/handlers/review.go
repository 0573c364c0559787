package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/reviews"
	"neighbourly-service/internal/telemetry"
)

// ReviewHandler exposes review submission on chat threads.
type ReviewHandler struct {
	workflow *reviews.Workflow
	audit    *telemetry.AuditEmitter
}

// NewReviewHandler builds a ReviewHandler.
func NewReviewHandler(workflow *reviews.Workflow, audit *telemetry.AuditEmitter) *ReviewHandler {
	return &ReviewHandler{workflow: workflow, audit: audit}
}

// SubmitReview records the caller's review of the other chat participant and
// advances the chat lifecycle.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		RevieweeID  int    `json:"reviewee_id" binding:"required"`
		Rating      int    `json:"rating" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reviewerID, err := currentUserID(c)
	if err != nil {
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}

	review, chat, err := h.workflow.Submit(c.Request.Context(), reviews.SubmitInput{
		ChatID:      chatID,
		ReviewerID:  reviewerID,
		RevieweeID:  req.RevieweeID,
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		c.JSON(lifecycleStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "chat review recorded", requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, gin.H{"review": review, "chat": toChatResponse(chat)})
}
