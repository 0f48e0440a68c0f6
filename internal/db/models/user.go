package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// ProgrammeStatus represents where a client currently is in their coaching programme.
type ProgrammeStatus string

const (
	// ProgrammeStatusActive indicates the client is actively working through the programme.
	ProgrammeStatusActive ProgrammeStatus = "active"
	// ProgrammeStatusPaused indicates the client has paused the programme.
	ProgrammeStatusPaused ProgrammeStatus = "paused"
	// ProgrammeStatusCompleted indicates the client finished the programme.
	ProgrammeStatusCompleted ProgrammeStatus = "completed"
)

// User represents an account on the coaching platform.
// Coaches carry the Admin flag; everyone else is a client.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the account can log in.
	Active bool
	// Email is the unique login identity, also used as the recipient
	// identity in the automation log.
	Email string `gorm:"unique;size:255;not null"`
	// FullName is the user's display name.
	FullName string `gorm:"size:255"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255"`
	// Admin marks coach accounts with access to the admin surface.
	Admin bool `gorm:"default:false"`
	// MustChangePassword forces a password change at next login.
	MustChangePassword bool `gorm:"default:false"`
	// ProgrammeAccess lists the programme areas this client may open.
	ProgrammeAccess string `gorm:"size:500"`
	// ProgrammeStatus is the client's current programme state.
	ProgrammeStatus ProgrammeStatus `gorm:"type:varchar(20);default:'active'"`
	// ResetToken is the outstanding password reset token, empty when none.
	ResetToken string `gorm:"size:64;index"`
	// ResetTokenExpiry is when the outstanding reset token stops being valid.
	ResetTokenExpiry *time.Time
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
