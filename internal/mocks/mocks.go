package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/models"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) FindOrCreateChat(ctx context.Context, requestID *int, requesterID int, helperID int) (models.Chat, error) {
	args := m.Called(ctx, requestID, requesterID, helperID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) SetOfferMade(ctx context.Context, chatID int) (models.Chat, bool, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) SetOfferAccepted(ctx context.Context, chatID int) (models.Chat, bool, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) SetReviewed(ctx context.Context, chatID int, role lifecycle.Role) (models.Chat, bool, error) {
	args := m.Called(ctx, chatID, role)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int, after *time.Time) ([]models.Message, error) {
	args := m.Called(ctx, chatID, after)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, chatID int, userID int) (models.ReadReceipt, error) {
	args := m.Called(ctx, chatID, userID)
	var receipt models.ReadReceipt
	if val := args.Get(0); val != nil {
		receipt = val.(models.ReadReceipt)
	}
	return receipt, args.Error(1)
}

func (m *MessageRepositoryMock) ListReceipts(ctx context.Context, chatID int) ([]models.ReadReceipt, error) {
	args := m.Called(ctx, chatID)
	var receipts []models.ReadReceipt
	if val := args.Get(0); val != nil {
		receipts = val.([]models.ReadReceipt)
	}
	return receipts, args.Error(1)
}

type ReviewRepositoryMock struct {
	mock.Mock
}

func (m *ReviewRepositoryMock) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	args := m.Called(ctx, review)
	var stored models.Review
	if val := args.Get(0); val != nil {
		stored = val.(models.Review)
	}
	return stored, args.Error(1)
}

func (m *ReviewRepositoryMock) ListForReviewee(ctx context.Context, revieweeID int) ([]models.Review, error) {
	args := m.Called(ctx, revieweeID)
	var list []models.Review
	if val := args.Get(0); val != nil {
		list = val.([]models.Review)
	}
	return list, args.Error(1)
}

func (m *ReviewRepositoryMock) HasReview(ctx context.Context, chatID int, reviewerID int) (bool, error) {
	args := m.Called(ctx, chatID, reviewerID)
	return args.Bool(0), args.Error(1)
}

type RequestRepositoryMock struct {
	mock.Mock
}

func (m *RequestRepositoryMock) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	args := m.Called(ctx, req)
	var stored models.Request
	if val := args.Get(0); val != nil {
		stored = val.(models.Request)
	}
	return stored, args.Error(1)
}

func (m *RequestRepositoryMock) GetRequest(ctx context.Context, requestID int) (models.Request, error) {
	args := m.Called(ctx, requestID)
	var req models.Request
	if val := args.Get(0); val != nil {
		req = val.(models.Request)
	}
	return req, args.Error(1)
}

func (m *RequestRepositoryMock) ListRequests(ctx context.Context, category string) ([]models.Request, error) {
	args := m.Called(ctx, category)
	var list []models.Request
	if val := args.Get(0); val != nil {
		list = val.([]models.Request)
	}
	return list, args.Error(1)
}

func (m *RequestRepositoryMock) Nearby(ctx context.Context, lon float64, lat float64, radiusMeters float64) ([]models.NearbyRequest, error) {
	args := m.Called(ctx, lon, lat, radiusMeters)
	var list []models.NearbyRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.NearbyRequest)
	}
	return list, args.Error(1)
}

func (m *RequestRepositoryMock) CloseRequest(ctx context.Context, requestID int, authorID int) error {
	args := m.Called(ctx, requestID, authorID)
	return args.Error(0)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) CreateProfile(ctx context.Context, profile models.Profile, passwordHash string) (models.Profile, error) {
	args := m.Called(ctx, profile, passwordHash)
	var stored models.Profile
	if val := args.Get(0); val != nil {
		stored = val.(models.Profile)
	}
	return stored, args.Error(1)
}

func (m *ProfileRepositoryMock) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByEmail(ctx context.Context, email string) (models.Profile, string, error) {
	args := m.Called(ctx, email)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.String(1), args.Error(2)
}

func (m *ProfileRepositoryMock) UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	args := m.Called(ctx, profile)
	var stored models.Profile
	if val := args.Get(0); val != nil {
		stored = val.(models.Profile)
	}
	return stored, args.Error(1)
}
