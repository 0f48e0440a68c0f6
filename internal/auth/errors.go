package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	// One error for both cases so callers cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled account.
	ErrUserAccountDisabled = errors.New("user account is disabled")
)
