// Package activity tracks client logins and answers inactivity queries
// for the login reminder automation.
package activity

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

var (
	// ErrEmailEmpty is returned when a tracking operation has no email.
	ErrEmailEmpty = errors.New("user email cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// InactiveClient is one row of the login reminder eligibility snapshot.
type InactiveClient struct {
	Email      string
	FullName   string
	LastLogin  *time.Time
	LoginCount int
}

// DaysInactive returns the whole days since the client's last login,
// or -1 if they never logged in.
func (c InactiveClient) DaysInactive(now time.Time) int {
	if c.LastLogin == nil {
		return -1
	}

	return int(now.Sub(*c.LastLogin).Hours() / 24)
}

// TrackLogin upserts the login_tracking row for the email: first login
// creates the row, later logins bump the counter and timestamp.
func TrackLogin(db *gorm.DB, email string, now time.Time) error {
	if db == nil {
		return ErrDBNil
	}
	if email == "" {
		return ErrEmailEmpty
	}

	var row models.LoginActivity
	result := db.Where("user_email = ?", email).First(&row)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		row = models.LoginActivity{
			UserEmail:  email,
			LastLogin:  now,
			LoginCount: 1,
		}

		return db.Create(&row).Error
	}
	if result.Error != nil {
		return result.Error
	}

	row.LastLogin = now
	row.LoginCount++

	return db.Save(&row).Error
}

// InactiveClients returns active non-admin accounts with no login in the
// last `days` days, never-logged-in clients first. This is the eligibility
// snapshot for the login reminder automation.
func InactiveClients(db *gorm.DB, days int, now time.Time) ([]InactiveClient, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var rows []InactiveClient
	result := db.Model(&models.User{}).
		Select("users.email AS email, users.full_name AS full_name, lt.last_login AS last_login, lt.login_count AS login_count").
		Joins("LEFT JOIN login_tracking lt ON users.email = lt.user_email").
		Where("users.admin = ? AND users.active = ?", false, true).
		Where("lt.last_login IS NULL OR lt.last_login < ?", cutoff).
		Order("lt.last_login ASC").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}
