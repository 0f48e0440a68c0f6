package models

import "time"

// Notification is one in-portal notification record, created by the mail
// dispatcher when a message goes out. Distinct from the automation log,
// which is the scheduler's dedup ledger.
type Notification struct {
	ID               uint64 `gorm:"primaryKey"`
	UserEmail        string `gorm:"size:255;not null;index"`
	NotificationType string `gorm:"size:50;not null"`
	Subject          string `gorm:"size:500"`
	Message          string `gorm:"type:text"`
	Link             string `gorm:"size:500"`
	LinkText         string `gorm:"size:100"`
	Read             bool   `gorm:"default:false"`
	SentAt           time.Time
	CreatedAt        time.Time
}

// TableName overrides GORM's default pluralized table naming.
func (Notification) TableName() string {
	return "notifications"
}
