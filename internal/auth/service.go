package auth

import (
	"errors"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/controller/user"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

// Service provides authentication against the local database.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Authenticate verifies an email/password pair and returns the account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(email, password string) (*models.User, error) {
	u, err := user.GetByEmail(s.db, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrEmailEmpty) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !u.Active {
		return nil, ErrUserAccountDisabled
	}

	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}
