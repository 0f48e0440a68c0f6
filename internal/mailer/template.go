package mailer

import (
	"html/template"
	"strings"

	"github.com/pkg/errors"
)

// Defaults substituted by Render when a message leaves a field empty.
const (
	defaultLoginReminderSubject = "Your Career Toolkit is Waiting"
	defaultLoginReminderBody    = "Just a gentle reminder that your Career Toolkit is ready and waiting. " +
		"All your tools, homework, and resources are there whenever you need them."
	defaultLoginReminderLinkText = "Access Your Toolkit"

	defaultHomeworkReadySubject  = "New Homework Ready"
	defaultHomeworkReadyBody     = "You have new homework waiting for you in your Career Toolkit."
	defaultHomeworkReadyLinkText = "View Homework"

	defaultPasswordResetSubject = "Reset Your Password"
	defaultPasswordResetBody    = "We received a request to reset your password. " +
		"Click the button below to set a new password. " +
		"This link will expire in 1 hour. " +
		"If you didn't request this, you can safely ignore this email."
	defaultPasswordResetLinkText = "Reset Password"

	defaultCustomSubject  = "An Update From Your Coach"
	defaultCustomLinkText = "View"
)

var layoutTmpl = template.Must(template.New("mail").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Arial, sans-serif; background-color: #f5f5f5;">
<div style="max-width: 600px; margin: 0 auto; background: white;">
<div style="background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%); padding: 30px; text-align: center;">
<h1 style="color: white; margin: 0; font-size: 24px;"><span style="color: #FFB627;">Spark</span> Your Potential</h1>
</div>
<div style="padding: 40px 30px;">
{{if .Heading}}<h2 style="color: #4ECDC4; margin-bottom: 20px;">{{.Heading}}</h2>{{end}}
<p>Hi {{.Name}},</p>
<p>{{.Body}}</p>
{{if .Link}}<div style="text-align: center; margin: 30px 0;">
<a href="{{.Link}}" style="background: linear-gradient(135deg, #4ECDC4 0%, #44A08D 100%); color: white; padding: 15px 30px; border-radius: 8px; text-decoration: none; font-weight: 600; display: inline-block;">{{.LinkText}}</a>
</div>{{end}}
{{if .Footnote}}<p style="color: #666; font-size: 14px;">{{.Footnote}}</p>{{end}}
</div>
<div style="background: #f8f9fa; padding: 20px 30px; text-align: center; border-top: 1px solid #eee;">
<p style="margin: 0; color: #888; font-size: 12px;">Lisa Gills | Career Coach<br>
<a href="https://www.harnessthespark.com" style="color: #4ECDC4;">www.harnessthespark.com</a></p>
</div>
</div>
</body>
</html>
`))

type layoutData struct {
	Heading  string
	Name     string
	Body     string
	Link     string
	LinkText string
	Footnote string
}

// RenderedMessage is a message after default substitution and templating,
// ready for a transport.
type RenderedMessage struct {
	Recipient   string
	Subject     string
	HTMLContent string
	TextContent string
}

// Render validates the message, fills in per-kind defaults and produces
// the final subject plus HTML and plain-text bodies.
func (m Message) Render() (*RenderedMessage, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	data := layoutData{
		Name:     m.RecipientName,
		Body:     m.Body,
		Link:     m.Link,
		LinkText: m.LinkText,
	}
	subject := m.Subject

	switch m.Kind {
	case KindLoginReminder:
		data.Heading = "Still Here For You!"
		data.Footnote = "No rush - I'm here when you're ready."
		if subject == "" {
			subject = defaultLoginReminderSubject
		}
		if data.Body == "" {
			data.Body = defaultLoginReminderBody
		}
		if data.LinkText == "" {
			data.LinkText = defaultLoginReminderLinkText
		}
	case KindHomeworkReady:
		data.Heading = "New Content Ready!"
		data.Footnote = "Looking forward to seeing your insights!"
		if subject == "" {
			subject = defaultHomeworkReadySubject
		}
		if data.Body == "" {
			data.Body = defaultHomeworkReadyBody
		}
		if data.LinkText == "" {
			data.LinkText = defaultHomeworkReadyLinkText
		}
	case KindPasswordReset:
		data.Heading = "Reset Your Password"
		if subject == "" {
			subject = defaultPasswordResetSubject
		}
		if data.Body == "" {
			data.Body = defaultPasswordResetBody
		}
		if data.LinkText == "" {
			data.LinkText = defaultPasswordResetLinkText
		}
	case KindCustom:
		if subject == "" {
			subject = defaultCustomSubject
		}
		if data.LinkText == "" {
			data.LinkText = defaultCustomLinkText
		}
	}

	var html strings.Builder
	if err := layoutTmpl.Execute(&html, data); err != nil {
		return nil, errors.Wrap(err, "rendering mail template")
	}

	var text strings.Builder
	text.WriteString("Hi " + data.Name + ",\n\n")
	text.WriteString(data.Body + "\n")
	if data.Link != "" {
		text.WriteString("\n" + data.LinkText + ": " + data.Link + "\n")
	}
	if data.Footnote != "" {
		text.WriteString("\n" + data.Footnote + "\n")
	}

	return &RenderedMessage{
		Recipient:   m.Recipient,
		Subject:     subject,
		HTMLContent: html.String(),
		TextContent: text.String(),
	}, nil
}
