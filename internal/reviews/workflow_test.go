package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/mocks"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

func acceptedChat() models.Chat {
	now := time.Now()
	return models.Chat{
		ID:              5,
		RequesterID:     1,
		HelperID:        2,
		OfferMadeAt:     &now,
		OfferAcceptedAt: &now,
	}
}

func TestSubmitRejectsRatingBeforePersisting(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	for _, rating := range []int{0, -1, 6, 100} {
		_, _, err := w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: rating})
		assert.ErrorIs(t, err, lifecycle.ErrInvalidRating)
	}

	// Nothing was read or written.
	chats.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestSubmitRejectsWrongReviewee(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(), nil).Twice()

	// An outsider as reviewee, then the reviewer naming themselves.
	_, _, err := w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 9, Rating: 4})
	assert.ErrorIs(t, err, lifecycle.ErrRoleMismatch)

	_, _, err = w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 1, Rating: 4})
	assert.ErrorIs(t, err, lifecycle.ErrRoleMismatch)

	chats.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestSubmitRequiresAcceptedOffer(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chat := acceptedChat()
	chat.OfferAcceptedAt = nil
	chats.On("GetChat", mock.Anything, 5).Return(chat, nil).Once()

	_, _, err := w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 4})
	assert.ErrorIs(t, err, lifecycle.ErrOfferNotAccepted)

	reviews.AssertExpectations(t)
}

func TestSubmitHappyPath(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)

	var refreshed *models.Chat
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), func(c models.Chat) {
		refreshed = &c
	})

	chat := acceptedChat()
	reviewedChat := chat
	now := time.Now()
	reviewedChat.RequesterReviewedAt = &now

	chats.On("GetChat", mock.Anything, 5).Return(chat, nil).Twice()
	reviews.On("CreateReview", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.ChatID == 5 && r.ReviewerID == 1 && r.RevieweeID == 2 && r.Rating == 4
	})).Return(models.Review{ID: 11, ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 4}, nil).Once()
	chats.On("SetReviewed", mock.Anything, 5, lifecycle.RoleRequester).Return(reviewedChat, true, nil).Once()

	review, updated, err := w.Submit(context.Background(), SubmitInput{
		ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 4, Description: "great help",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, review.ID)
	assert.NotNil(t, updated.RequesterReviewedAt)
	require.NotNil(t, refreshed)
	assert.Equal(t, 5, refreshed.ID)

	chats.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestSubmitDuplicateReview(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(), nil).Once()
	reviews.On("CreateReview", mock.Anything, mock.Anything).Return(models.Review{}, repositories.ErrDuplicateReview).Once()

	_, _, err := w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 4})
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyReviewed)

	chats.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestSubmitKeepsReviewOnLifecycleFailure(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chat := acceptedChat()
	chats.On("GetChat", mock.Anything, 5).Return(chat, nil).Twice()
	reviews.On("CreateReview", mock.Anything, mock.Anything).Return(models.Review{ID: 11}, nil).Once()
	chats.On("SetReviewed", mock.Anything, 5, lifecycle.RoleRequester).Return(models.Chat{}, false, assert.AnError).Once()

	review, _, err := w.Submit(context.Background(), SubmitInput{ChatID: 5, ReviewerID: 1, RevieweeID: 2, Rating: 4})
	require.Error(t, err)
	assert.Equal(t, 11, review.ID)
	assert.Contains(t, err.Error(), "lifecycle not advanced")

	chats.AssertExpectations(t)
}

func TestReconcileRepairsMissingSlot(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chat := acceptedChat()
	repaired := chat
	now := time.Now()
	repaired.RequesterReviewedAt = &now

	// Requester's review row exists but the slot was never advanced.
	chats.On("GetChat", mock.Anything, 5).Return(chat, nil).Twice()
	reviews.On("HasReview", mock.Anything, 5, 1).Return(true, nil).Once()
	chats.On("SetReviewed", mock.Anything, 5, lifecycle.RoleRequester).Return(repaired, true, nil).Once()
	reviews.On("HasReview", mock.Anything, 5, 2).Return(false, nil).Once()

	result, changed, err := w.Reconcile(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotNil(t, result.RequesterReviewedAt)
	assert.Nil(t, result.HelperReviewedAt)

	chats.AssertExpectations(t)
	reviews.AssertExpectations(t)
}

func TestReconcileNoopBeforeAcceptance(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	reviews := new(mocks.ReviewRepositoryMock)
	w := NewWorkflow(chats, reviews, lifecycle.NewEngine(chats), nil)

	chat := acceptedChat()
	chat.OfferAcceptedAt = nil
	chats.On("GetChat", mock.Anything, 5).Return(chat, nil).Once()

	_, changed, err := w.Reconcile(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, changed)

	reviews.AssertExpectations(t)
}
