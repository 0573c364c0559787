package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

// RequestHandler manages help-request endpoints.
type RequestHandler struct {
	requestRepo repositories.RequestRepository
}

// NewRequestHandler builds a RequestHandler.
func NewRequestHandler(requestRepo repositories.RequestRepository) *RequestHandler {
	return &RequestHandler{requestRepo: requestRepo}
}

// Create posts a new help request.
func (h *RequestHandler) Create(c *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		Category    string   `json:"category" binding:"required"`
		ImageURL    string   `json:"image_url"`
		Lat         *float64 `json:"lat" binding:"required"`
		Lon         *float64 `json:"lon" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	stored, err := h.requestRepo.CreateRequest(c.Request.Context(), models.Request{
		AuthorID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Lat:         *req.Lat,
		Lon:         *req.Lon,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create request"})
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// List returns open requests, optionally filtered by category.
func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.requestRepo.ListRequests(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Get returns a single request.
func (h *RequestHandler) Get(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.requestRepo.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "request not found"})
		return
	}
	c.JSON(http.StatusOK, req)
}

// Nearby returns open requests within radius_meters of (lon, lat), closest
// first.
func (h *RequestHandler) Nearby(c *gin.Context) {
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	radius, errRadius := strconv.ParseFloat(c.DefaultQuery("radius_meters", "5000"), 64)
	if errLon != nil || errLat != nil || errRadius != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon/lat/radius_meters"})
		return
	}

	requests, err := h.requestRepo.Nearby(c.Request.Context(), lon, lat, radius)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load nearby requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// Close marks the caller's request as closed.
func (h *RequestHandler) Close(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.requestRepo.CloseRequest(c.Request.Context(), requestID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not close request"})
		return
	}
	c.Status(http.StatusNoContent)
}
