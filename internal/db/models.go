package db

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies an external service a user can link.
type Provider string

// Supported providers.
const (
	ProviderStrava  Provider = "strava"
	ProviderSpotify Provider = "spotify"
)

// User represents a Justletic account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authenticated web session.
type Session struct {
	ID        string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Key represents one linked external-service account for one user.
// RefreshToken is set for Spotify only; ProviderAccountID holds the
// provider-side account identifier (Strava athlete id, Spotify user id).
type Key struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Provider          Provider
	AccessToken       string
	RefreshToken      *string
	ProviderAccountID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
