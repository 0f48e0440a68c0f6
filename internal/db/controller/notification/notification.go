// Package notification provides CRUD operations for in-portal notifications.
package notification

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

const unreadLimit = 20

var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrEmailEmpty is returned when an operation has no user email.
	ErrEmailEmpty = errors.New("user email cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create records one notification for in-portal display.
func Create(db *gorm.DB, userEmail, notificationType, subject, message, link, linkText string, sentAt time.Time) (*models.Notification, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userEmail == "" {
		return nil, ErrEmailEmpty
	}

	n := &models.Notification{
		UserEmail:        userEmail,
		NotificationType: notificationType,
		Subject:          subject,
		Message:          message,
		Link:             link,
		LinkText:         linkText,
		SentAt:           sentAt,
	}

	if err := db.Create(n).Error; err != nil {
		return nil, err
	}

	return n, nil
}

// Unread returns the newest unread notifications for a user, capped at 20.
func Unread(db *gorm.DB, userEmail string) ([]models.Notification, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if userEmail == "" {
		return nil, ErrEmailEmpty
	}

	var rows []models.Notification
	result := db.Where("user_email = ? AND read = ?", userEmail, false).
		Order("sent_at DESC").
		Limit(unreadLimit).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

// MarkRead flags one notification as read, scoped to the owning user.
func MarkRead(db *gorm.DB, userEmail string, id uint64) error {
	if db == nil {
		return ErrDBNil
	}
	if userEmail == "" {
		return ErrEmailEmpty
	}

	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_email = ?", id, userEmail).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}
