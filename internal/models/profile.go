package models

import "time"

// Profile is a Neighbourly user account. The password hash never leaves the
// repository layer.
type Profile struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Bio       string    `db:"bio" json:"bio,omitempty"`
	Lat       *float64  `db:"lat" json:"lat,omitempty"`
	Lon       *float64  `db:"lon" json:"lon,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
