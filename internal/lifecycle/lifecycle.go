package lifecycle

import (
	"context"
	"time"

	"neighbourly-service/internal/models"
)

// Role identifies which side of a chat an actor is on.
type Role int

const (
	RoleRequester Role = iota
	RoleHelper
)

func (r Role) String() string {
	if r == RoleHelper {
		return "helper"
	}
	return "requester"
}

// Chat lifecycle states derived from the timestamp slots.
const (
	StateCreated           = "created"
	StateOfferMade         = "offer_made"
	StateOfferAccepted     = "offer_accepted"
	StatePartiallyReviewed = "partially_reviewed"
	StateFullyReviewed     = "fully_reviewed"
)

// RoleOf resolves the actor's role on the chat, or ErrRoleMismatch if the
// actor is not a participant.
func RoleOf(chat models.Chat, actorID int) (Role, error) {
	switch actorID {
	case chat.RequesterID:
		return RoleRequester, nil
	case chat.HelperID:
		return RoleHelper, nil
	}
	return 0, ErrRoleMismatch
}

// IsFullyReviewed reports whether both participants have reviewed.
func IsFullyReviewed(chat models.Chat) bool {
	return chat.HelperReviewedAt != nil && chat.RequesterReviewedAt != nil
}

// StateOf derives the display state from the chat's timestamp slots.
func StateOf(chat models.Chat) string {
	switch {
	case IsFullyReviewed(chat):
		return StateFullyReviewed
	case chat.HelperReviewedAt != nil || chat.RequesterReviewedAt != nil:
		return StatePartiallyReviewed
	case chat.OfferAcceptedAt != nil:
		return StateOfferAccepted
	case chat.OfferMadeAt != nil:
		return StateOfferMade
	}
	return StateCreated
}

// Store persists chat rows. The setters are conditional updates: they apply
// only while the target slot is still empty (and its precondition slot is
// set), and report whether the row changed. A false return means another
// writer got there first.
type Store interface {
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	SetOfferMade(ctx context.Context, chatID int) (models.Chat, bool, error)
	SetOfferAccepted(ctx context.Context, chatID int) (models.Chat, bool, error)
	SetReviewed(ctx context.Context, chatID int, role Role) (models.Chat, bool, error)
}

// Engine validates and applies chat lifecycle transitions. Each transition
// re-reads the persisted row, checks the actor and slot guards, then relies
// on the store's conditional update so a concurrent duplicate fails with the
// precise guard error instead of double-applying.
type Engine struct {
	store Store
}

// NewEngine builds an Engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// MakeOffer records the helper's offer. Only the helper may offer, and only
// once.
func (e *Engine) MakeOffer(ctx context.Context, chatID int, actorID int) (models.Chat, error) {
	chat, err := e.store.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	role, err := RoleOf(chat, actorID)
	if err != nil {
		return chat, err
	}
	if role != RoleHelper {
		return chat, ErrRoleMismatch
	}
	if chat.OfferMadeAt != nil {
		return chat, ErrAlreadyOffered
	}

	updated, applied, err := e.store.SetOfferMade(ctx, chatID)
	if err != nil {
		return chat, err
	}
	if !applied {
		// Lost a race: the slot filled between read and update.
		if current, err := e.store.GetChat(ctx, chatID); err == nil {
			chat = current
		}
		return chat, ErrAlreadyOffered
	}
	return updated, nil
}

// AcceptOffer records the requester's acceptance of a pending offer.
func (e *Engine) AcceptOffer(ctx context.Context, chatID int, actorID int) (models.Chat, error) {
	chat, err := e.store.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	role, err := RoleOf(chat, actorID)
	if err != nil {
		return chat, err
	}
	if role != RoleRequester {
		return chat, ErrRoleMismatch
	}
	if chat.OfferMadeAt == nil {
		return chat, ErrOfferNotYetMade
	}
	if chat.OfferAcceptedAt != nil {
		return chat, ErrAlreadyAccepted
	}

	updated, applied, err := e.store.SetOfferAccepted(ctx, chatID)
	if err != nil {
		return chat, err
	}
	if !applied {
		if current, err := e.store.GetChat(ctx, chatID); err == nil {
			chat = current
		}
		if chat.OfferAcceptedAt != nil {
			return chat, ErrAlreadyAccepted
		}
		return chat, ErrOfferNotYetMade
	}
	return updated, nil
}

// RecordReview fills the reviewed-at slot matching the actor's role, once the
// offer has been accepted.
func (e *Engine) RecordReview(ctx context.Context, chatID int, actorID int) (models.Chat, error) {
	chat, err := e.store.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	role, err := RoleOf(chat, actorID)
	if err != nil {
		return chat, err
	}
	if chat.OfferAcceptedAt == nil {
		return chat, ErrOfferNotAccepted
	}
	if reviewedAt(chat, role) != nil {
		return chat, ErrAlreadyReviewed
	}

	updated, applied, err := e.store.SetReviewed(ctx, chatID, role)
	if err != nil {
		return chat, err
	}
	if !applied {
		if current, err := e.store.GetChat(ctx, chatID); err == nil {
			chat = current
		}
		if reviewedAt(chat, role) != nil {
			return chat, ErrAlreadyReviewed
		}
		return chat, ErrOfferNotAccepted
	}
	return updated, nil
}

func reviewedAt(chat models.Chat, role Role) *time.Time {
	if role == RoleHelper {
		return chat.HelperReviewedAt
	}
	return chat.RequesterReviewedAt
}
