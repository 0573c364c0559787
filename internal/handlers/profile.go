package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

// ProfileHandler manages profile endpoints.
type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	reviewRepo  repositories.ReviewRepository
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profileRepo repositories.ProfileRepository, reviewRepo repositories.ReviewRepository) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, reviewRepo: reviewRepo}
}

// Me returns the authenticated user's profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")
	profile, err := h.profileRepo.GetProfile(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe updates the authenticated user's profile fields.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Name      string   `json:"name" binding:"required"`
		AvatarURL string   `json:"avatar_url"`
		Bio       string   `json:"bio"`
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	profile, err := h.profileRepo.UpdateProfile(c.Request.Context(), models.Profile{
		ID:        userID,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
		Lat:       req.Lat,
		Lon:       req.Lon,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile returns any user's public profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	profile, err := h.profileRepo.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListReviews returns reviews received by a user, newest first.
func (h *ProfileHandler) ListReviews(c *gin.Context) {
	profileID, err := strconv.Atoi(c.Param("profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	reviews, err := h.reviewRepo.ListForReviewee(c.Request.Context(), profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
