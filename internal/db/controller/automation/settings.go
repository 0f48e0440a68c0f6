// Package automation provides CRUD operations for automation settings
// and the append-only automation log.
package automation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

const (
	kindQueryPattern = "setting_key = ?"

	// DefaultCooldownDays is used when a setting is saved without a cooldown.
	DefaultCooldownDays = 7
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("automation setting not found")
	// ErrKindEmpty is returned when attempting to read/write a setting with an empty kind.
	ErrKindEmpty = errors.New("automation kind cannot be empty")
	// ErrNegativeCooldown is returned when a setting is saved with a negative cooldown.
	ErrNegativeCooldown = errors.New("cooldown days cannot be negative")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetSetting retrieves an automation setting by its kind.
func GetSetting(db *gorm.DB, kind string) (*models.AutomationSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if kind == "" {
		return nil, ErrKindEmpty
	}

	var setting models.AutomationSetting
	result := db.Where(kindQueryPattern, kind).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, result.Error
	}

	return &setting, nil
}

// GetAllSettings retrieves all automation settings ordered by kind.
func GetAllSettings(db *gorm.DB) ([]models.AutomationSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.AutomationSetting
	result := db.Order("setting_key ASC").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// SaveSetting creates or updates the setting for a kind (upsert by kind).
// LastRunAt is never touched here; only the scheduler writes it.
func SaveSetting(db *gorm.DB, kind string, enabled bool, cooldownDays int, config []byte) (*models.AutomationSetting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if kind == "" {
		return nil, ErrKindEmpty
	}
	if cooldownDays < 0 {
		return nil, ErrNegativeCooldown
	}
	if cooldownDays == 0 {
		cooldownDays = DefaultCooldownDays
	}

	var setting models.AutomationSetting
	result := db.Where(kindQueryPattern, kind).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = models.AutomationSetting{
			Kind:         kind,
			Enabled:      enabled,
			CooldownDays: cooldownDays,
			Config:       config,
		}

		if err := db.Create(&setting).Error; err != nil {
			return nil, err
		}

		return &setting, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	setting.Enabled = enabled
	setting.CooldownDays = cooldownDays
	setting.Config = config

	if err := db.Save(&setting).Error; err != nil {
		return nil, err
	}

	return &setting, nil
}

// UpdateLastRun stamps the setting for a kind with the given run time.
func UpdateLastRun(db *gorm.DB, kind string, ts time.Time) error {
	if db == nil {
		return ErrDBNil
	}
	if kind == "" {
		return ErrKindEmpty
	}

	result := db.Model(&models.AutomationSetting{}).
		Where(kindQueryPattern, kind).
		Update("last_run", ts)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
