package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a Spotify user profile.
type User struct {
	ID          string
	DisplayName string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated web session.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// GeneratedPlaylist is an audit entry for a playlist created by a bulk action.
type GeneratedPlaylist struct {
	ID        uuid.UUID
	UserID    string
	Type      string // "cleaner" or "time_machine"
	CreatedAt time.Time
}
