package models

import "time"

// Account stores the OAuth identity and tokens for one Google account used
// to reach the CloudCode backend. Exactly one record exists per email.
type Account struct {
	ID           string `gorm:"primaryKey"` // UUID
	Email        string `gorm:"uniqueIndex"`
	AccessToken  string
	RefreshToken string // empty means the account can never be auto-refreshed

	// TokenExpiresAt is nil when the provider returned no expiry. Such
	// accounts are treated as already expired and refreshed on every sweep.
	TokenExpiresAt *time.Time

	// IsInvalid marks a refresh token the authorization server rejected for
	// a permanent reason. Invalid accounts are never refreshed again until
	// the user re-authenticates.
	IsInvalid     bool `gorm:"default:false"`
	InvalidReason string

	Position  int    // store order, preserved across full-document saves
	Metadata  string // JSON blob for provider-specific extras (e.g. project_id)
	CreatedAt time.Time
	UpdatedAt time.Time
}
