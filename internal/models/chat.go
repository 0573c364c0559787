package models

import "time"

// Chat represents a help conversation between a requester and a helper,
// optionally tied to the help request it originated from. The four nullable
// timestamps track the offer/accept/review lifecycle; each is set exactly once.
type Chat struct {
	ID                  int        `db:"id" json:"id"`
	RequestID           *int       `db:"request_id" json:"request_id,omitempty"`
	RequesterID         int        `db:"requester_id" json:"requester_id"`
	HelperID            int        `db:"helper_id" json:"helper_id"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	OfferMadeAt         *time.Time `db:"offer_made_at" json:"offer_made_at,omitempty"`
	OfferAcceptedAt     *time.Time `db:"offer_accepted_at" json:"offer_accepted_at,omitempty"`
	HelperReviewedAt    *time.Time `db:"helper_reviewed_at" json:"helper_reviewed_at,omitempty"`
	RequesterReviewedAt *time.Time `db:"requester_reviewed_at" json:"requester_reviewed_at,omitempty"`
}

// ReadReceipt records how far a participant has read a chat.
type ReadReceipt struct {
	ChatID     int       `db:"chat_id" json:"chat_id"`
	UserID     int       `db:"user_id" json:"user_id"`
	LastReadAt time.Time `db:"last_read_at" json:"last_read_at"`
}
