package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"neighbourly-service/internal/models"
)

// MessageRepository defines interactions for chat messages and read receipts.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int, after *time.Time) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID int, userID int) (models.ReadReceipt, error)
	ListReceipts(ctx context.Context, chatID int) ([]models.ReadReceipt, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message and returns the authoritative row, with the
// server-assigned id and timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, chat_id, sender_id, content, created_at`,
		chatID, senderID, content).
		Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// ListMessages returns a chat's messages ascending by creation time,
// optionally only those after the given instant.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int, after *time.Time) ([]models.Message, error) {
	var msgs []models.Message
	if after != nil {
		query := `SELECT id, chat_id, sender_id, content, created_at FROM messages
            WHERE chat_id=$1 AND created_at > $2
            ORDER BY created_at ASC, id ASC`
		err := r.db.SelectContext(ctx, &msgs, query, chatID, *after)
		return msgs, err
	}
	query := `SELECT id, chat_id, sender_id, content, created_at FROM messages
        WHERE chat_id=$1
        ORDER BY created_at ASC, id ASC`
	err := r.db.SelectContext(ctx, &msgs, query, chatID)
	return msgs, err
}

// MarkRead upserts the caller's read receipt for the chat.
func (r *MessageRepo) MarkRead(ctx context.Context, chatID int, userID int) (models.ReadReceipt, error) {
	var receipt models.ReadReceipt
	err := r.db.GetContext(ctx, &receipt,
		`INSERT INTO read_receipts (chat_id, user_id, last_read_at) VALUES ($1, $2, NOW())
         ON CONFLICT (chat_id, user_id) DO UPDATE SET last_read_at = NOW()
         RETURNING chat_id, user_id, last_read_at`,
		chatID, userID)
	return receipt, err
}

// ListReceipts returns both participants' read receipts for the chat.
func (r *MessageRepo) ListReceipts(ctx context.Context, chatID int) ([]models.ReadReceipt, error) {
	var receipts []models.ReadReceipt
	err := r.db.SelectContext(ctx, &receipts,
		`SELECT chat_id, user_id, last_read_at FROM read_receipts WHERE chat_id=$1`, chatID)
	return receipts, err
}
