package models

import "time"

// Request statuses.
const (
	RequestStatusOpen   = "open"
	RequestStatusClosed = "closed"
)

// Request is a posted ask for help, pinned to a location so neighbours can
// discover it.
type Request struct {
	ID          int       `db:"id" json:"id"`
	AuthorID    int       `db:"author_id" json:"author_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	Category    string    `db:"category" json:"category"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	Lat         float64   `db:"lat" json:"lat"`
	Lon         float64   `db:"lon" json:"lon"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// NearbyRequest is a request annotated with its distance from the query point.
type NearbyRequest struct {
	Request
	DistanceM float64 `db:"distance_m" json:"distance_m"`
}
