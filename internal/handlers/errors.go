package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/repositories"
)

// lifecycleStatus maps a lifecycle or repository error to an HTTP status.
// Guard violations are conflicts: the caller's view of the chat was stale and
// retrying the same transition will not succeed.
func lifecycleStatus(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrIdentityUnavailable):
		return http.StatusUnauthorized
	case errors.Is(err, lifecycle.ErrRoleMismatch):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrAlreadyOffered),
		errors.Is(err, lifecycle.ErrAlreadyAccepted),
		errors.Is(err, lifecycle.ErrAlreadyReviewed),
		errors.Is(err, lifecycle.ErrOfferNotYetMade),
		errors.Is(err, lifecycle.ErrOfferNotAccepted),
		errors.Is(err, repositories.ErrDuplicateReview):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, repositories.ErrChatNotFound),
		errors.Is(err, repositories.ErrRequestNotFound),
		errors.Is(err, repositories.ErrProfileNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// currentUserID reads the authenticated identity set by the auth middleware.
func currentUserID(c *gin.Context) (int, error) {
	userID := c.GetInt("userID")
	if userID == 0 {
		return 0, lifecycle.ErrIdentityUnavailable
	}
	return userID, nil
}
