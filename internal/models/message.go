package models

import "time"

// Message represents a chat message. Negative ids are reserved for
// provisional entries created locally before the insert is confirmed; they
// are never persisted.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Provisional reports whether the message is an unconfirmed local entry.
func (m Message) Provisional() bool {
	return m.ID < 0
}

// ChatEvent is broadcast through websockets.
type ChatEvent struct {
	Type     string    `json:"type"`
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Chat     *Chat     `json:"chat,omitempty"`
	Error    string    `json:"error,omitempty"`
	Draft    string    `json:"draft,omitempty"`
}
