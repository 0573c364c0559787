package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighbourly-service/internal/models"
)

// memStore mimics the repository's conditional updates: a setter applies only
// while the target slot is empty and its precondition holds.
type memStore struct {
	mu   sync.Mutex
	chat models.Chat
}

func newMemStore(chat models.Chat) *memStore {
	return &memStore{chat: chat}
}

func (s *memStore) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat, nil
}

func (s *memStore) SetOfferMade(ctx context.Context, chatID int) (models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat.OfferMadeAt != nil {
		return s.chat, false, nil
	}
	now := time.Now()
	s.chat.OfferMadeAt = &now
	return s.chat, true, nil
}

func (s *memStore) SetOfferAccepted(ctx context.Context, chatID int) (models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat.OfferMadeAt == nil || s.chat.OfferAcceptedAt != nil {
		return s.chat, false, nil
	}
	now := time.Now()
	s.chat.OfferAcceptedAt = &now
	return s.chat, true, nil
}

func (s *memStore) SetReviewed(ctx context.Context, chatID int, role Role) (models.Chat, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat.OfferAcceptedAt == nil {
		return s.chat, false, nil
	}
	now := time.Now()
	if role == RoleHelper {
		if s.chat.HelperReviewedAt != nil {
			return s.chat, false, nil
		}
		s.chat.HelperReviewedAt = &now
	} else {
		if s.chat.RequesterReviewedAt != nil {
			return s.chat, false, nil
		}
		s.chat.RequesterReviewedAt = &now
	}
	return s.chat, true, nil
}

const (
	requesterID = 1
	helperID    = 2
	outsiderID  = 9
)

func baseChat() models.Chat {
	return models.Chat{ID: 5, RequesterID: requesterID, HelperID: helperID}
}

func TestRoleOf(t *testing.T) {
	chat := baseChat()

	role, err := RoleOf(chat, requesterID)
	require.NoError(t, err)
	assert.Equal(t, RoleRequester, role)

	role, err = RoleOf(chat, helperID)
	require.NoError(t, err)
	assert.Equal(t, RoleHelper, role)

	_, err = RoleOf(chat, outsiderID)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestMakeOfferRoleGuards(t *testing.T) {
	engine := NewEngine(newMemStore(baseChat()))

	_, err := engine.MakeOffer(context.Background(), 5, requesterID)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	_, err = engine.MakeOffer(context.Background(), 5, outsiderID)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	chat, err := engine.MakeOffer(context.Background(), 5, helperID)
	require.NoError(t, err)
	assert.NotNil(t, chat.OfferMadeAt)
}

func TestMakeOfferSecondAttemptKeepsTimestamp(t *testing.T) {
	engine := NewEngine(newMemStore(baseChat()))

	first, err := engine.MakeOffer(context.Background(), 5, helperID)
	require.NoError(t, err)
	require.NotNil(t, first.OfferMadeAt)

	second, err := engine.MakeOffer(context.Background(), 5, helperID)
	assert.ErrorIs(t, err, ErrAlreadyOffered)
	require.NotNil(t, second.OfferMadeAt)
	assert.True(t, second.OfferMadeAt.Equal(*first.OfferMadeAt))
}

func TestAcceptOfferGuards(t *testing.T) {
	engine := NewEngine(newMemStore(baseChat()))

	_, err := engine.AcceptOffer(context.Background(), 5, requesterID)
	assert.ErrorIs(t, err, ErrOfferNotYetMade)

	_, err = engine.MakeOffer(context.Background(), 5, helperID)
	require.NoError(t, err)

	_, err = engine.AcceptOffer(context.Background(), 5, helperID)
	assert.ErrorIs(t, err, ErrRoleMismatch)

	chat, err := engine.AcceptOffer(context.Background(), 5, requesterID)
	require.NoError(t, err)
	assert.NotNil(t, chat.OfferAcceptedAt)

	_, err = engine.AcceptOffer(context.Background(), 5, requesterID)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestRecordReviewRequiresAcceptedOffer(t *testing.T) {
	store := newMemStore(baseChat())
	engine := NewEngine(store)

	_, err := engine.RecordReview(context.Background(), 5, helperID)
	assert.ErrorIs(t, err, ErrOfferNotAccepted)

	_, err = engine.MakeOffer(context.Background(), 5, helperID)
	require.NoError(t, err)

	_, err = engine.RecordReview(context.Background(), 5, requesterID)
	assert.ErrorIs(t, err, ErrOfferNotAccepted)
}

func TestFullLifecycle(t *testing.T) {
	engine := NewEngine(newMemStore(baseChat()))
	ctx := context.Background()

	chat, err := engine.MakeOffer(ctx, 5, helperID)
	require.NoError(t, err)
	assert.Equal(t, StateOfferMade, StateOf(chat))

	chat, err = engine.AcceptOffer(ctx, 5, requesterID)
	require.NoError(t, err)
	assert.Equal(t, StateOfferAccepted, StateOf(chat))

	chat, err = engine.RecordReview(ctx, 5, helperID)
	require.NoError(t, err)
	assert.Equal(t, StatePartiallyReviewed, StateOf(chat))
	assert.False(t, IsFullyReviewed(chat))

	_, err = engine.RecordReview(ctx, 5, helperID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	chat, err = engine.RecordReview(ctx, 5, requesterID)
	require.NoError(t, err)
	assert.Equal(t, StateFullyReviewed, StateOf(chat))
	assert.True(t, IsFullyReviewed(chat))

	// Once both slots are set, repeats from either side are rejected.
	for _, actor := range []int{helperID, requesterID} {
		_, err = engine.RecordReview(ctx, 5, actor)
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	}
}

func TestConcurrentAcceptAppliesOnce(t *testing.T) {
	store := newMemStore(baseChat())
	engine := NewEngine(store)
	ctx := context.Background()

	_, err := engine.MakeOffer(ctx, 5, helperID)
	require.NoError(t, err)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.AcceptOffer(ctx, 5, requesterID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.ErrorIs(t, err, ErrAlreadyAccepted)
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)

	chat, err := store.GetChat(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateOfferAccepted, StateOf(chat))
}

func TestStateOfEmptyChat(t *testing.T) {
	assert.Equal(t, StateCreated, StateOf(baseChat()))
}
