package automation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

// ErrRecipientEmpty is returned when a log operation is attempted without a recipient.
var ErrRecipientEmpty = errors.New("recipient cannot be empty")

// LogFilter narrows the result of RecentLog.
type LogFilter struct {
	Kind      string
	Recipient string
	Limit     int
}

// AppendLog writes one entry to the automation log. The log is append-only;
// there is deliberately no update or delete counterpart.
func AppendLog(db *gorm.DB, kind, recipient string, status models.AutomationStatus, details []byte) (*models.AutomationLogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if kind == "" {
		return nil, ErrKindEmpty
	}
	if recipient == "" {
		return nil, ErrRecipientEmpty
	}

	entry := models.AutomationLogEntry{
		Kind:      kind,
		Recipient: recipient,
		Status:    status,
		Details:   details,
	}

	if err := db.Create(&entry).Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

// RecentLog returns log entries newest first, narrowed by the filter.
func RecentLog(db *gorm.DB, filter LogFilter) ([]models.AutomationLogEntry, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	tx := db.Model(&models.AutomationLogEntry{})

	if filter.Kind != "" {
		tx = tx.Where("automation_type = ?", filter.Kind)
	}

	if filter.Recipient != "" {
		tx = tx.Where("client_email = ?", filter.Recipient)
	}

	tx = tx.Order("created_at DESC")

	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}

	var entries []models.AutomationLogEntry
	if err := tx.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// WasRecentlyNotified reports whether a "sent" entry exists for the
// kind/recipient pair inside the cooldown window. The window is strict:
// an entry created exactly cooldownDays ago is outside it and does not
// block a new send.
func WasRecentlyNotified(db *gorm.DB, kind, recipient string, cooldownDays int, now time.Time) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}
	if kind == "" {
		return false, ErrKindEmpty
	}
	if recipient == "" {
		return false, ErrRecipientEmpty
	}

	cutoff := now.Add(-time.Duration(cooldownDays) * 24 * time.Hour)

	var count int64
	result := db.Model(&models.AutomationLogEntry{}).
		Where("automation_type = ? AND client_email = ? AND status = ? AND created_at > ?",
			kind, recipient, models.AutomationStatusSent, cutoff).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
