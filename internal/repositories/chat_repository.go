package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, request_id, requester_id, helper_id, created_at,
    offer_made_at, offer_accepted_at, helper_reviewed_at, requester_reviewed_at`

// ChatRepository abstracts chat thread persistence. The Set* methods are
// conditional updates that only fire while the target lifecycle slot is
// empty; the bool result reports whether the row changed.
type ChatRepository interface {
	FindOrCreateChat(ctx context.Context, requestID *int, requesterID int, helperID int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChats(ctx context.Context, userID int) ([]models.Chat, error)
	SetOfferMade(ctx context.Context, chatID int) (models.Chat, bool, error)
	SetOfferAccepted(ctx context.Context, chatID int) (models.Chat, bool, error)
	SetReviewed(ctx context.Context, chatID int, role lifecycle.Role) (models.Chat, bool, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// FindOrCreateChat returns the existing thread between the pair for the given
// request, creating it if none exists. The search-before-insert keeps a
// retried "contact helper" tap from spawning duplicate threads.
func (r *ChatRepo) FindOrCreateChat(ctx context.Context, requestID *int, requesterID int, helperID int) (models.Chat, error) {
	if requesterID == helperID {
		return models.Chat{}, errors.New("requester and helper must differ")
	}

	var chat models.Chat
	query := `SELECT ` + chatColumns + ` FROM chats
        WHERE requester_id=$1 AND helper_id=$2 AND request_id IS NOT DISTINCT FROM $3`
	err := r.db.GetContext(ctx, &chat, query, requesterID, helperID, requestID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	insert := `INSERT INTO chats (request_id, requester_id, helper_id) VALUES ($1, $2, $3)
        RETURNING ` + chatColumns
	if err := r.db.GetContext(ctx, &chat, insert, requestID, requesterID, helperID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (requester_id=$2 OR helper_id=$2))`,
		chatID, userID)
	return exists, err
}

// ListChats returns the user's chats, newest first.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	query := `SELECT ` + chatColumns + ` FROM chats
        WHERE requester_id=$1 OR helper_id=$1
        ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &chats, query, userID)
	return chats, err
}

// SetOfferMade fills offer_made_at if it is still empty.
func (r *ChatRepo) SetOfferMade(ctx context.Context, chatID int) (models.Chat, bool, error) {
	query := `UPDATE chats SET offer_made_at = NOW()
        WHERE id=$1 AND offer_made_at IS NULL
        RETURNING ` + chatColumns
	return r.conditionalUpdate(ctx, query, chatID)
}

// SetOfferAccepted fills offer_accepted_at once an offer exists.
func (r *ChatRepo) SetOfferAccepted(ctx context.Context, chatID int) (models.Chat, bool, error) {
	query := `UPDATE chats SET offer_accepted_at = NOW()
        WHERE id=$1 AND offer_made_at IS NOT NULL AND offer_accepted_at IS NULL
        RETURNING ` + chatColumns
	return r.conditionalUpdate(ctx, query, chatID)
}

// SetReviewed fills the reviewed-at slot for the role once the offer was
// accepted.
func (r *ChatRepo) SetReviewed(ctx context.Context, chatID int, role lifecycle.Role) (models.Chat, bool, error) {
	slot := "requester_reviewed_at"
	if role == lifecycle.RoleHelper {
		slot = "helper_reviewed_at"
	}
	query := `UPDATE chats SET ` + slot + ` = NOW()
        WHERE id=$1 AND offer_accepted_at IS NOT NULL AND ` + slot + ` IS NULL
        RETURNING ` + chatColumns
	return r.conditionalUpdate(ctx, query, chatID)
}

func (r *ChatRepo) conditionalUpdate(ctx context.Context, query string, chatID int) (models.Chat, bool, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		// Guard did not hold: either the chat is missing or the slot was
		// already set. The caller re-reads to tell which.
		return models.Chat{}, false, nil
	}
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, true, nil
}
