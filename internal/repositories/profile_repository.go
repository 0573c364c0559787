package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighbourly-service/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")
)

const profileColumns = `id, name, email, avatar_url, bio, lat, lon, created_at`

// ProfileRepository persists user accounts.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile models.Profile, passwordHash string) (models.Profile, error)
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	GetByEmail(ctx context.Context, email string) (models.Profile, string, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile registers a new account.
func (r *ProfileRepo) CreateProfile(ctx context.Context, profile models.Profile, passwordHash string) (models.Profile, error) {
	var stored models.Profile
	err := r.db.GetContext(ctx, &stored,
		`INSERT INTO profiles (name, email, password_hash, avatar_url, bio, lat, lon)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+profileColumns,
		profile.Name, profile.Email, passwordHash, profile.AvatarURL, profile.Bio, profile.Lat, profile.Lon)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Profile{}, ErrEmailTaken
		}
		return models.Profile{}, err
	}
	return stored, nil
}

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID int) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetByEmail fetches a profile and its password hash for login.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (models.Profile, string, error) {
	var row struct {
		models.Profile
		PasswordHash string `db:"password_hash"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT `+profileColumns+`, password_hash FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, "", ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, "", err
	}
	return row.Profile, row.PasswordHash, nil
}

// UpdateProfile writes the mutable profile fields.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	var stored models.Profile
	err := r.db.GetContext(ctx, &stored,
		`UPDATE profiles SET name=$2, avatar_url=$3, bio=$4, lat=$5, lon=$6
         WHERE id=$1
         RETURNING `+profileColumns,
		profile.ID, profile.Name, profile.AvatarURL, profile.Bio, profile.Lat, profile.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return stored, err
}
