package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"neighbourly-service/internal/models"
)

var ErrRequestNotFound = errors.New("request not found")

const requestColumns = `id, author_id, title, description, category, image_url, lat, lon, status, created_at`

// RequestRepository persists help requests.
type RequestRepository interface {
	CreateRequest(ctx context.Context, req models.Request) (models.Request, error)
	GetRequest(ctx context.Context, requestID int) (models.Request, error)
	ListRequests(ctx context.Context, category string) ([]models.Request, error)
	Nearby(ctx context.Context, lon float64, lat float64, radiusMeters float64) ([]models.NearbyRequest, error)
	CloseRequest(ctx context.Context, requestID int, authorID int) error
}

// RequestRepo is a sqlx implementation of RequestRepository.
type RequestRepo struct {
	db *sqlx.DB
}

// NewRequestRepo constructs a RequestRepo.
func NewRequestRepo(db *sqlx.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

// CreateRequest inserts a new open help request.
func (r *RequestRepo) CreateRequest(ctx context.Context, req models.Request) (models.Request, error) {
	var stored models.Request
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO requests (author_id, title, description, category, image_url, lat, lon)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+requestColumns,
		req.AuthorID, req.Title, req.Description, req.Category, req.ImageURL, req.Lat, req.Lon)
	return stored, err
}

// GetRequest fetches a request by id.
func (r *RequestRepo) GetRequest(ctx context.Context, requestID int) (models.Request, error) {
	var req models.Request
	err := r.db.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM requests WHERE id=$1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Request{}, ErrRequestNotFound
	}
	return req, err
}

// ListRequests returns open requests, optionally filtered by category,
// newest first.
func (r *RequestRepo) ListRequests(ctx context.Context, category string) ([]models.Request, error) {
	var requests []models.Request
	if category != "" {
		query := `SELECT ` + requestColumns + ` FROM requests
            WHERE status='open' AND LOWER(category)=LOWER($1)
            ORDER BY created_at DESC`
		err := r.db.SelectContext(ctx, &requests, query, category)
		return requests, err
	}
	query := `SELECT ` + requestColumns + ` FROM requests WHERE status='open' ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &requests, query)
	return requests, err
}

// Nearby returns open requests within radiusMeters of the point, closest
// first. Distance is great-circle (haversine) on a spherical earth.
func (r *RequestRepo) Nearby(ctx context.Context, lon float64, lat float64, radiusMeters float64) ([]models.NearbyRequest, error) {
	query := `SELECT * FROM (
            SELECT ` + requestColumns + `,
                2 * 6371000 * asin(sqrt(
                    pow(sin(radians(lat - $2) / 2), 2) +
                    cos(radians($2)) * cos(radians(lat)) *
                    pow(sin(radians(lon - $1) / 2), 2)
                )) AS distance_m
            FROM requests
            WHERE status='open'
        ) nearby
        WHERE distance_m <= $3
        ORDER BY distance_m ASC`
	var requests []models.NearbyRequest
	err := r.db.SelectContext(ctx, &requests, query, lon, lat, radiusMeters)
	return requests, err
}

// CloseRequest marks a request closed. Only its author may close it.
func (r *RequestRepo) CloseRequest(ctx context.Context, requestID int, authorID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE requests SET status='closed' WHERE id=$1 AND author_id=$2`, requestID, authorID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}
