package mailer

import (
	"context"
	"sync"
)

// DummyDispatcher renders messages and keeps them in memory instead of
// sending anything. Used by tests and local development. Safe for
// concurrent use.
type DummyDispatcher struct {
	mu   sync.Mutex
	sent []RenderedMessage

	// Fail, when set, makes Send return it for every message.
	Fail error
	// FailFor makes Send return ErrSendFailed for these recipients only.
	FailFor map[string]bool
}

var _ Dispatcher = (*DummyDispatcher)(nil)

// NewDummyDispatcher returns an empty recording dispatcher.
func NewDummyDispatcher() *DummyDispatcher {
	return &DummyDispatcher{}
}

// Send records the rendered message, or fails if configured to.
func (d *DummyDispatcher) Send(ctx context.Context, msg Message) error {
	rendered, err := msg.Render()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Fail != nil {
		return d.Fail
	}
	if d.FailFor[rendered.Recipient] {
		return ErrSendFailed
	}

	d.sent = append(d.sent, *rendered)

	return nil
}

// Sent returns a copy of everything delivered so far.
func (d *DummyDispatcher) Sent() []RenderedMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]RenderedMessage, len(d.sent))
	copy(out, d.sent)

	return out
}

// SentTo returns the messages delivered to one recipient.
func (d *DummyDispatcher) SentTo(recipient string) []RenderedMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []RenderedMessage
	for _, m := range d.sent {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}

	return out
}

// Reset drops all recorded messages.
func (d *DummyDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sent = nil
}
