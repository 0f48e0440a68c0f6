package mailer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/controller/notification"
)

// NotifyingDispatcher wraps another dispatcher and records a portal
// notification row for every message that goes out. A failed send
// produces no row; a failed row write does not fail the send.
type NotifyingDispatcher struct {
	db   *gorm.DB
	next Dispatcher
}

var _ Dispatcher = (*NotifyingDispatcher)(nil)

// NewNotifyingDispatcher wraps next with portal notification persistence.
func NewNotifyingDispatcher(db *gorm.DB, next Dispatcher) *NotifyingDispatcher {
	return &NotifyingDispatcher{db: db, next: next}
}

// Send delivers the message through the wrapped dispatcher and persists
// the notification on success.
func (d *NotifyingDispatcher) Send(ctx context.Context, msg Message) error {
	if err := d.next.Send(ctx, msg); err != nil {
		return err
	}

	// Password reset links must not show up in the portal.
	if msg.Kind == KindPasswordReset {
		return nil
	}

	rendered, err := msg.Render()
	if err != nil {
		return nil
	}

	_, err = notification.Create(d.db,
		rendered.Recipient,
		string(msg.Kind),
		rendered.Subject,
		msg.Body,
		msg.Link,
		msg.LinkText,
		time.Now().UTC(),
	)
	if err != nil {
		log.Error().Err(err).
			Str("recipient", rendered.Recipient).
			Msg("failed to record portal notification")
	}

	return nil
}
