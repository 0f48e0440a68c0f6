package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/controller/notification"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Notification{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{
			name: "valid login reminder",
			msg:  Message{Kind: KindLoginReminder, Recipient: "a@x.com", RecipientName: "A"},
		},
		{
			name:    "missing kind",
			msg:     Message{Recipient: "a@x.com", RecipientName: "A"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			msg:     Message{Kind: "newsletter", Recipient: "a@x.com", RecipientName: "A"},
			wantErr: true,
		},
		{
			name:    "bad recipient",
			msg:     Message{Kind: KindCustom, Recipient: "not-an-email", RecipientName: "A"},
			wantErr: true,
		},
		{
			name:    "missing name",
			msg:     Message{Kind: KindCustom, Recipient: "a@x.com"},
			wantErr: true,
		},
		{
			name:    "bad link",
			msg:     Message{Kind: KindCustom, Recipient: "a@x.com", RecipientName: "A", Link: "::nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMessage)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRenderDefaults(t *testing.T) {
	msg := Message{
		Kind:          KindLoginReminder,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
		Link:          "https://portal.example.com",
	}

	rendered, err := msg.Render()
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", rendered.Recipient)
	assert.Equal(t, defaultLoginReminderSubject, rendered.Subject)
	assert.Contains(t, rendered.HTMLContent, "Hi Alice,")
	assert.Contains(t, rendered.HTMLContent, "https://portal.example.com")
	assert.Contains(t, rendered.HTMLContent, defaultLoginReminderLinkText)
	assert.Contains(t, rendered.TextContent, "Career Toolkit")
}

func TestRenderOverrides(t *testing.T) {
	msg := Message{
		Kind:          KindHomeworkReady,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
		Subject:       "Values Exercise",
		Body:          "Your values exercise is ready.",
	}

	rendered, err := msg.Render()
	require.NoError(t, err)

	assert.Equal(t, "Values Exercise", rendered.Subject)
	assert.Contains(t, rendered.HTMLContent, "Your values exercise is ready.")
	assert.NotContains(t, rendered.HTMLContent, defaultHomeworkReadyBody)
}

func TestRenderEscapesHTML(t *testing.T) {
	msg := Message{
		Kind:          KindCustom,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
		Body:          "<script>alert(1)</script>",
	}

	rendered, err := msg.Render()
	require.NoError(t, err)

	assert.NotContains(t, rendered.HTMLContent, "<script>")
	assert.True(t, strings.Contains(rendered.HTMLContent, "&lt;script&gt;"))
}

func TestDummyDispatcher(t *testing.T) {
	d := NewDummyDispatcher()
	ctx := context.Background()

	err := d.Send(ctx, Message{Kind: KindLoginReminder, Recipient: "a@x.com", RecipientName: "A"})
	require.NoError(t, err)
	err = d.Send(ctx, Message{Kind: KindLoginReminder, Recipient: "b@x.com", RecipientName: "B"})
	require.NoError(t, err)

	assert.Len(t, d.Sent(), 2)
	assert.Len(t, d.SentTo("a@x.com"), 1)

	d.FailFor = map[string]bool{"c@x.com": true}
	err = d.Send(ctx, Message{Kind: KindLoginReminder, Recipient: "c@x.com", RecipientName: "C"})
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Empty(t, d.SentTo("c@x.com"))

	d.Reset()
	assert.Empty(t, d.Sent())
}

func TestNotifyingDispatcherRecordsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	inner := NewDummyDispatcher()
	d := NewNotifyingDispatcher(db, inner)

	err := d.Send(context.Background(), Message{
		Kind:          KindHomeworkReady,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
		Link:          "https://portal.example.com/homework/1",
	})
	require.NoError(t, err)

	rows, err := notification.Unread(db, "a@x.com")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(KindHomeworkReady), rows[0].NotificationType)
	assert.Equal(t, defaultHomeworkReadySubject, rows[0].Subject)
}

func TestNotifyingDispatcherSkipsOnFailure(t *testing.T) {
	db := setupTestDB(t)
	inner := NewDummyDispatcher()
	inner.Fail = ErrSendFailed
	d := NewNotifyingDispatcher(db, inner)

	err := d.Send(context.Background(), Message{
		Kind:          KindLoginReminder,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
	})
	require.ErrorIs(t, err, ErrSendFailed)

	rows, err := notification.Unread(db, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNotifyingDispatcherSkipsPasswordReset(t *testing.T) {
	db := setupTestDB(t)
	inner := NewDummyDispatcher()
	d := NewNotifyingDispatcher(db, inner)

	err := d.Send(context.Background(), Message{
		Kind:          KindPasswordReset,
		Recipient:     "a@x.com",
		RecipientName: "Alice",
		Link:          "https://portal.example.com/reset?token=abc",
	})
	require.NoError(t, err)

	assert.Len(t, inner.SentTo("a@x.com"), 1)

	rows, err := notification.Unread(db, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
