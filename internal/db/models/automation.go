// Package models contains database model definitions.
package models

import "time"

// Automation kind keys. One AutomationSetting row exists per key.
const (
	// KindLoginReminders nudges clients who have not logged in for a while.
	KindLoginReminders = "login_reminders"
	// KindHomeworkAlerts nudges clients sitting on unanswered homework.
	KindHomeworkAlerts = "homework_alerts"
)

// AutomationStatus is the outcome recorded for one dispatch attempt.
type AutomationStatus string

const (
	// AutomationStatusSent means the notification was accepted by the mail transport.
	AutomationStatusSent AutomationStatus = "sent"
	// AutomationStatusFailed means the dispatch attempt errored.
	AutomationStatusFailed AutomationStatus = "failed"
	// AutomationStatusSkipped means the recipient was inside the cooldown window.
	AutomationStatusSkipped AutomationStatus = "skipped"
)

// AutomationSetting is the per-kind configuration for the scheduler.
// At most one row exists per Kind; mutated by coach/admin action and
// read fresh on every scheduler tick.
type AutomationSetting struct {
	ID uint64 `gorm:"primaryKey"`
	// Kind is the automation identifier, e.g. "login_reminders".
	Kind string `gorm:"column:setting_key;unique;size:100;not null"`
	// Enabled gates the kind; disabled kinds are skipped entirely.
	Enabled bool `gorm:"default:false"`
	// CooldownDays is the minimum gap in days between two sends to the
	// same recipient, and doubles as the inactivity threshold.
	CooldownDays int `gorm:"column:frequency_days;default:7"`
	// Config is an opaque kind-specific JSON payload.
	Config []byte `gorm:"type:blob"`
	// LastRunAt records when the scheduler last considered this kind.
	LastRunAt *time.Time `gorm:"column:last_run"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralized table naming.
func (AutomationSetting) TableName() string {
	return "automation_settings"
}

// AutomationLogEntry is one row of the append-only dispatch ledger.
// Rows are created exactly once per dispatch attempt and never updated;
// the "sent" rows are the source of truth for cooldown deduplication.
type AutomationLogEntry struct {
	ID        uint64           `gorm:"primaryKey"`
	Kind      string           `gorm:"column:automation_type;size:50;not null;index"`
	Recipient string           `gorm:"column:client_email;size:255;not null;index"`
	Status    AutomationStatus `gorm:"type:varchar(20);default:'sent'"`
	Details   []byte           `gorm:"type:blob"`
	CreatedAt time.Time        `gorm:"index"`
}

// TableName overrides GORM's default pluralized table naming.
func (AutomationLogEntry) TableName() string {
	return "automation_log"
}
