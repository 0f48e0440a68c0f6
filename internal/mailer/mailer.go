// Package mailer builds and delivers outbound email for the coaching
// platform. A Dispatcher takes a validated Message, renders it into the
// branded HTML layout and hands it to the transport. The SendGrid
// implementation is used in production; the dummy implementation records
// messages in memory for tests and local development.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Kind selects the message template and default wording.
type Kind string

const (
	// KindLoginReminder nudges a client who has not signed in for a while.
	KindLoginReminder Kind = "login_reminder"
	// KindHomeworkReady tells a client that an assignment is waiting.
	KindHomeworkReady Kind = "homework_ready"
	// KindPasswordReset carries a password reset link.
	KindPasswordReset Kind = "password_reset"
	// KindCustom is a free-form message written by the coach.
	KindCustom Kind = "custom"
)

var (
	// ErrInvalidMessage is returned when a message fails validation.
	ErrInvalidMessage = errors.New("mail message is invalid")
	// ErrSendFailed is returned when the transport rejects a message.
	ErrSendFailed = errors.New("mail transport rejected the message")
)

// Message is one outbound email. Subject, Body, Link and LinkText are
// optional; Render substitutes per-kind defaults for anything left empty.
type Message struct {
	Kind          Kind   `validate:"required,oneof=login_reminder homework_ready password_reset custom"`
	Recipient     string `validate:"required,email"`
	RecipientName string `validate:"required"`
	Subject       string
	Body          string
	Link          string `validate:"omitempty,url"`
	LinkText      string
}

// Dispatcher delivers rendered messages. Send returns an error when the
// message is invalid or the transport refuses it; callers decide whether
// that means retry, log, or give up.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

var validate = validator.New()

// Validate checks the message against its field constraints.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	return nil
}
