// Package user provides CRUD operations for platform accounts.
package user

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/uniuri"
)

const (
	emailQueryPattern = "email = ?"

	// ResetTokenTTL is how long a password reset token stays valid.
	ResetTokenTTL = time.Hour
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailEmpty is returned when attempting to create/look up a user with an empty email.
	ErrEmailEmpty = errors.New("user email cannot be empty")
	// ErrUserAlreadyExists is returned when attempting to create a user that already exists.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrResetTokenInvalid is returned when a reset token is unknown or expired.
	ErrResetTokenInvalid = errors.New("password reset token is invalid or expired")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByEmail retrieves a user by email.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}

	var u models.User
	result := db.Where(emailQueryPattern, email).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// ListClients retrieves all non-admin accounts ordered by creation time.
func ListClients(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	result := db.Where("admin = ?", false).Order("created_at ASC").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Create creates a new account with a hashed password.
func Create(db *gorm.DB, email, fullName, password string, admin bool) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}

	var existing models.User
	result := db.Where(emailQueryPattern, email).First(&existing)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	u := &models.User{
		Email:    email,
		FullName: fullName,
		Password: models.HashPassword(password),
		Admin:    admin,
		Active:   true,
	}

	if err := db.Create(u).Error; err != nil {
		return nil, err
	}

	return u, nil
}

// Update applies the given field changes to a user by email.
func Update(db *gorm.DB, email string, updates map[string]interface{}) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if email == "" {
		return nil, ErrEmailEmpty
	}

	u, err := GetByEmail(db, email)
	if err != nil {
		return nil, err
	}

	if err := db.Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}

	return u, nil
}

// Delete removes a user by email.
func Delete(db *gorm.DB, email string) error {
	if db == nil {
		return ErrDBNil
	}
	if email == "" {
		return ErrEmailEmpty
	}

	result := db.Where(emailQueryPattern, email).Delete(&models.User{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetPassword replaces the password hash and clears any outstanding reset token.
func SetPassword(db *gorm.DB, email, password string) error {
	_, err := Update(db, email, map[string]interface{}{
		"password":             models.HashPassword(password),
		"must_change_password": false,
		"reset_token":          "",
		"reset_token_expiry":   nil,
	})

	return err
}

// CreateResetToken issues a fresh password reset token for the account.
func CreateResetToken(db *gorm.DB, email string) (string, error) {
	token := uniuri.NewLen(uniuri.UUIDLen)
	expiry := time.Now().UTC().Add(ResetTokenTTL)

	_, err := Update(db, email, map[string]interface{}{
		"reset_token":        token,
		"reset_token_expiry": expiry,
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// GetByResetToken resolves a user from an unexpired reset token.
func GetByResetToken(db *gorm.DB, token string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if token == "" {
		return nil, ErrResetTokenInvalid
	}

	var u models.User
	result := db.Where("reset_token = ?", token).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrResetTokenInvalid
		}
		return nil, result.Error
	}

	if u.ResetTokenExpiry == nil || u.ResetTokenExpiry.Before(time.Now().UTC()) {
		return nil, ErrResetTokenInvalid
	}

	return &u, nil
}
