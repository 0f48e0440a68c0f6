package models

import "time"

// LoginActivity tracks when a client last logged in, one row per email.
// It feeds the inactive-client snapshot used by the login reminder automation.
type LoginActivity struct {
	ID         uint64    `gorm:"primaryKey"`
	UserEmail  string    `gorm:"unique;size:255;not null"`
	LastLogin  time.Time `gorm:"index"`
	LoginCount int       `gorm:"default:1"`
	CreatedAt  time.Time
}

// TableName overrides GORM's default pluralized table naming.
func (LoginActivity) TableName() string {
	return "login_tracking"
}
