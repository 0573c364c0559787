package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/auth"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

// AuthHandler manages registration and login.
type AuthHandler struct {
	profileRepo repositories.ProfileRepository
	tokens      *auth.Tokens
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(profileRepo repositories.ProfileRepository, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{profileRepo: profileRepo, tokens: tokens}
}

// Register creates an account and returns a session token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	profile, err := h.profileRepo.CreateProfile(c.Request.Context(), models.Profile{
		Name:  req.Name,
		Email: req.Email,
	}, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "profile": profile})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, hash, err := h.profileRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(hash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}
