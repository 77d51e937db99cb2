package models

import "time"

// TierRoute pins a capability tier to a specific upstream model, overriding
// whatever the resolver would pick from the live catalog.
// At most one route exists per tier ("opus", "sonnet", "haiku").
type TierRoute struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Tier        string    `gorm:"uniqueIndex;not null" json:"tier"`
	TargetModel string    `gorm:"not null" json:"target_model"` // e.g. "gemini-3-pro"
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
