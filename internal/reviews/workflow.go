// Package reviews orchestrates review submission: validate, persist the
// review row, advance the chat lifecycle's reviewed-at slot, and notify
// dependent views.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log"

	"neighbourly-service/internal/lifecycle"
	"neighbourly-service/internal/models"
	"neighbourly-service/internal/repositories"
)

// SubmitInput carries one review submission.
type SubmitInput struct {
	ChatID      int
	ReviewerID  int
	RevieweeID  int
	Rating      int
	Description string
}

// Workflow ties review persistence to the chat lifecycle engine. The refresh
// callback, when set, fires after a successful submission so dependent views
// can re-pull lifecycle state.
type Workflow struct {
	chats   repositories.ChatRepository
	reviews repositories.ReviewRepository
	engine  *lifecycle.Engine
	refresh func(chat models.Chat)
}

// NewWorkflow constructs a Workflow.
func NewWorkflow(chats repositories.ChatRepository, reviewRepo repositories.ReviewRepository, engine *lifecycle.Engine, refresh func(chat models.Chat)) *Workflow {
	return &Workflow{chats: chats, reviews: reviewRepo, engine: engine, refresh: refresh}
}

// Submit validates and records a review, then advances the corresponding
// lifecycle slot. The rating is checked before anything is persisted. If the
// slot advance fails after the review row was stored, the review is kept and
// the inconsistency is repaired by Reconcile on the next chat load.
func (w *Workflow) Submit(ctx context.Context, in SubmitInput) (models.Review, models.Chat, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return models.Review{}, models.Chat{}, lifecycle.ErrInvalidRating
	}

	chat, err := w.chats.GetChat(ctx, in.ChatID)
	if err != nil {
		return models.Review{}, models.Chat{}, err
	}

	role, err := lifecycle.RoleOf(chat, in.ReviewerID)
	if err != nil {
		return models.Review{}, chat, err
	}
	reviewee := chat.HelperID
	if role == lifecycle.RoleHelper {
		reviewee = chat.RequesterID
	}
	if in.RevieweeID != reviewee {
		return models.Review{}, chat, lifecycle.ErrRoleMismatch
	}

	// Guard before persisting so a rejected transition leaves no orphan row.
	if chat.OfferAcceptedAt == nil {
		return models.Review{}, chat, lifecycle.ErrOfferNotAccepted
	}

	review, err := w.reviews.CreateReview(ctx, models.Review{
		ChatID:      chat.ID,
		RequestID:   chat.RequestID,
		ReviewerID:  in.ReviewerID,
		RevieweeID:  in.RevieweeID,
		Rating:      in.Rating,
		Description: in.Description,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateReview) {
			return models.Review{}, chat, lifecycle.ErrAlreadyReviewed
		}
		return models.Review{}, chat, err
	}

	updated, err := w.engine.RecordReview(ctx, chat.ID, in.ReviewerID)
	if err != nil {
		// Partial failure: the review exists but the slot did not advance.
		// Reconcile repairs the slot from the review table on next load.
		return review, chat, fmt.Errorf("review stored but lifecycle not advanced: %w", err)
	}

	if w.refresh != nil {
		w.refresh(updated)
	}
	return review, updated, nil
}

// Reconcile re-derives unset reviewed-at slots from the reviews table,
// repairing chats whose Submit was interrupted between the review insert and
// the slot advance. Returns the (possibly updated) chat and whether anything
// changed.
func (w *Workflow) Reconcile(ctx context.Context, chatID int) (models.Chat, bool, error) {
	chat, err := w.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.Chat{}, false, err
	}
	if chat.OfferAcceptedAt == nil {
		return chat, false, nil
	}

	changed := false
	for _, participant := range []int{chat.RequesterID, chat.HelperID} {
		role, _ := lifecycle.RoleOf(chat, participant)
		if slotSet(chat, role) {
			continue
		}
		has, err := w.reviews.HasReview(ctx, chatID, participant)
		if err != nil {
			return chat, changed, err
		}
		if !has {
			continue
		}
		updated, err := w.engine.RecordReview(ctx, chatID, participant)
		if err != nil {
			log.Printf("review reconcile: chat=%d user=%d: %v", chatID, participant, err)
			continue
		}
		chat = updated
		changed = true
	}
	return chat, changed, nil
}

func slotSet(chat models.Chat, role lifecycle.Role) bool {
	if role == lifecycle.RoleHelper {
		return chat.HelperReviewedAt != nil
	}
	return chat.RequesterReviewedAt != nil
}
