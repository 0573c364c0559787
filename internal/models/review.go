package models

import "time"

// Review is a participant's rating of the other side of a chat after the
// offer was accepted. At most one review exists per (chat, reviewer).
type Review struct {
	ID          int       `db:"id" json:"id"`
	ChatID      int       `db:"chat_id" json:"chat_id"`
	RequestID   *int      `db:"request_id" json:"request_id,omitempty"`
	ReviewerID  int       `db:"reviewer_id" json:"reviewer_id"`
	RevieweeID  int       `db:"reviewee_id" json:"reviewee_id"`
	Rating      int       `db:"rating" json:"rating"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
