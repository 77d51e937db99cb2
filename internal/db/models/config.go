package models

import "time"

// Config is a small key/value table for runtime settings such as the
// generated proxy API key.
type Config struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
