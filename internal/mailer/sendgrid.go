package mailer

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sparkcoach/sparkcoach/internal/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridDispatcher delivers messages through the SendGrid v3 API.
type SendGridDispatcher struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ Dispatcher = (*SendGridDispatcher)(nil)

// NewSendGridDispatcher builds a dispatcher from the mail configuration.
func NewSendGridDispatcher(cfg *config.Mail) *SendGridDispatcher {
	prefix := ""
	if cfg.SubjectTag != "" {
		prefix = "[" + cfg.SubjectTag + "] "
	}

	return &SendGridDispatcher{
		key:        cfg.SendGridKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: prefix,
	}
}

// Send renders the message and posts it to SendGrid. A non-2xx response
// counts as a failed delivery.
func (d *SendGridDispatcher) Send(ctx context.Context, msg Message) error {
	rendered, err := msg.Render()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p := sgmail.NewPersonalization()
	p.Subject = d.subjPrefix + rendered.Subject
	p.AddTos(sgmail.NewEmail(msg.RecipientName, rendered.Recipient))

	m := sgmail.NewV3Mail()
	m.SetFrom(d.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", rendered.TextContent),
		sgmail.NewContent("text/html", rendered.HTMLContent),
	)

	req := sendgrid.GetRequest(d.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sending email")
	}

	if res.StatusCode >= http.StatusBadRequest {
		log.Error().
			Int("status", res.StatusCode).
			Str("recipient", rendered.Recipient).
			Str("body", res.Body).
			Msg("sendgrid rejected message")

		return errors.Wrapf(ErrSendFailed, "sendgrid status %d", res.StatusCode)
	}

	return nil
}
