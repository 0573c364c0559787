package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/mocks"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
	"neighbourly-service/internal/reviews"
)

type reviewFixture struct {
	chatRepo   *mocks.ChatRepositoryMock
	reviewRepo *mocks.ReviewRepositoryMock
	router     *gin.Engine
}

func newReviewFixture(userID int) *reviewFixture {
	gin.SetMode(gin.TestMode)
	f := &reviewFixture{
		chatRepo:   new(mocks.ChatRepositoryMock),
		reviewRepo: new(mocks.ReviewRepositoryMock),
	}

	engine := lifecycle.NewEngine(f.chatRepo)
	workflow := reviews.NewWorkflow(f.chatRepo, f.reviewRepo, engine, nil)
	handler := NewReviewHandler(workflow, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/chats/:chat_id/reviews", handler.SubmitReview)
	f.router = r
	return f
}

func (f *reviewFixture) submit(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chats/5/reviews", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func reviewableChat() models.Chat {
	now := time.Now()
	return models.Chat{ID: 5, RequesterID: 1, HelperID: 2, OfferMadeAt: &now, OfferAcceptedAt: &now}
}

func TestSubmitReviewSuccess(t *testing.T) {
	f := newReviewFixture(1)

	chat := reviewableChat()
	reviewed := chat
	now := time.Now()
	reviewed.RequesterReviewedAt = &now

	f.chatRepo.On("GetChat", mock.Anything, 5).Return(chat, nil).Twice()
	f.reviewRepo.On("CreateReview", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.ChatID == 5 && r.ReviewerID == 1 && r.RevieweeID == 2 && r.Rating == 5
	})).Return(models.Review{ID: 11, ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 5}, nil).Once()
	f.chatRepo.On("SetReviewed", mock.Anything, 5, lifecycle.RoleRequester).Return(reviewed, true, nil).Once()

	rec := f.submit(`{"reviewee_id":2,"rating":5,"description":"fixed my fence"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Review models.Review `json:"review"`
		Chat   struct {
			State string `json:"state"`
		} `json:"chat"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 11, resp.Review.ID)
	assert.Equal(t, "partially_reviewed", resp.Chat.State)

	f.chatRepo.AssertExpectations(t)
	f.reviewRepo.AssertExpectations(t)
}

func TestSubmitReviewInvalidRating(t *testing.T) {
	f := newReviewFixture(1)

	rec := f.submit(`{"reviewee_id":2,"rating":6}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.reviewRepo.AssertExpectations(t)
}

func TestSubmitReviewBeforeAcceptanceConflict(t *testing.T) {
	f := newReviewFixture(1)

	chat := reviewableChat()
	chat.OfferAcceptedAt = nil
	f.chatRepo.On("GetChat", mock.Anything, 5).Return(chat, nil).Once()

	rec := f.submit(`{"reviewee_id":2,"rating":4}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	f.reviewRepo.AssertExpectations(t)
}

func TestSubmitReviewDuplicateConflict(t *testing.T) {
	f := newReviewFixture(1)

	f.chatRepo.On("GetChat", mock.Anything, 5).Return(reviewableChat(), nil).Once()
	f.reviewRepo.On("CreateReview", mock.Anything, mock.Anything).Return(models.Review{}, repositories.ErrDuplicateReview).Once()

	rec := f.submit(`{"reviewee_id":2,"rating":4}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	f.reviewRepo.AssertExpectations(t)
}

func TestSubmitReviewByOutsiderForbidden(t *testing.T) {
	f := newReviewFixture(9)

	f.chatRepo.On("GetChat", mock.Anything, 5).Return(reviewableChat(), nil).Once()

	rec := f.submit(`{"reviewee_id":2,"rating":4}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.reviewRepo.AssertExpectations(t)
}
