package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighbourly-service/internal/models"
)

var ErrDuplicateReview = errors.New("review already exists for this chat and reviewer")

const uniqueViolation = "23505"

// ReviewRepository persists reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review models.Review) (models.Review, error)
	ListForReviewee(ctx context.Context, revieweeID int) ([]models.Review, error)
	HasReview(ctx context.Context, chatID int, reviewerID int) (bool, error)
}

// ReviewRepo is a sqlx implementation of ReviewRepository.
type ReviewRepo struct {
	db *sqlx.DB
}

// NewReviewRepo constructs a ReviewRepo.
func NewReviewRepo(db *sqlx.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// CreateReview inserts a review. The (chat_id, reviewer_id) unique constraint
// backs the at-most-one-review-per-role invariant.
func (r *ReviewRepo) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	var stored models.Review
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO reviews (chat_id, request_id, reviewer_id, reviewee_id, rating, description)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, chat_id, request_id, reviewer_id, reviewee_id, rating, description, created_at`,
		review.ChatID, review.RequestID, review.ReviewerID, review.RevieweeID, review.Rating, review.Description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Review{}, ErrDuplicateReview
		}
		return models.Review{}, err
	}
	return stored, nil
}

// ListForReviewee returns reviews received by a user, newest first.
func (r *ReviewRepo) ListForReviewee(ctx context.Context, revieweeID int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT id, chat_id, request_id, reviewer_id, reviewee_id, rating, description, created_at
         FROM reviews WHERE reviewee_id=$1 ORDER BY created_at DESC`, revieweeID)
	return reviews, err
}

// HasReview reports whether the reviewer already reviewed this chat.
func (r *ReviewRepo) HasReview(ctx context.Context, chatID int, reviewerID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE chat_id=$1 AND reviewer_id=$2)`,
		chatID, reviewerID)
	return exists, err
}
