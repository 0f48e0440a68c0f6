package automation

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/controller/activity"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/homework"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
)

// candidate is one recipient selected by a kind's snapshot, with the
// ready-to-send message and the details blob for the log entry.
type candidate struct {
	email   string
	message mailer.Message
	details []byte
}

// definition binds an automation kind to its eligibility snapshot. The
// snapshot runs against a single point in time so every recipient of a
// tick is judged by the same clock reading.
type definition struct {
	kind     string
	snapshot func(db *gorm.DB, portalURL string, days int, now time.Time) ([]candidate, error)
}

// kinds is the processing order of a tick.
var kinds = []definition{
	{kind: models.KindLoginReminders, snapshot: loginReminderCandidates},
	{kind: models.KindHomeworkAlerts, snapshot: homeworkAlertCandidates},
}

// Kinds returns the registered automation kind names in processing order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for _, def := range kinds {
		out = append(out, def.kind)
	}

	return out
}

// loginReminderCandidates selects active clients with no login inside the
// window and builds a gentle nudge back to the portal.
func loginReminderCandidates(db *gorm.DB, portalURL string, days int, now time.Time) ([]candidate, error) {
	clients, err := activity.InactiveClients(db, days, now)
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(clients))
	for _, c := range clients {
		details, _ := json.Marshal(map[string]interface{}{
			"client_name":   c.FullName,
			"days_inactive": c.DaysInactive(now),
			"login_count":   c.LoginCount,
		})

		out = append(out, candidate{
			email:   c.Email,
			details: details,
			message: mailer.Message{
				Kind:          mailer.KindLoginReminder,
				Recipient:     c.Email,
				RecipientName: displayName(c.FullName, c.Email),
				Link:          portalURL,
			},
		})
	}

	return out, nil
}

// homeworkAlertCandidates selects clients sitting on unsubmitted homework
// older than the window. A client with several open assignments gets one
// email covering the oldest.
func homeworkAlertCandidates(db *gorm.DB, portalURL string, days int, now time.Time) ([]candidate, error) {
	pending, err := homework.PendingClients(db, days, now)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(pending))
	out := make([]candidate, 0, len(pending))

	for _, p := range pending {
		if seen[p.Email] {
			continue
		}
		seen[p.Email] = true

		details, _ := json.Marshal(map[string]interface{}{
			"client_name":   p.FullName,
			"homework_type": p.HomeworkType,
			"assigned_at":   p.AssignedAt.UTC().Format(time.RFC3339),
		})

		out = append(out, candidate{
			email:   p.Email,
			details: details,
			message: mailer.Message{
				Kind:          mailer.KindHomeworkReady,
				Recipient:     p.Email,
				RecipientName: displayName(p.FullName, p.Email),
				Body: "Your " + p.HomeworkType +
					" homework is still waiting for you in your Career Toolkit.",
				Link: portalURL,
			},
		})
	}

	return out, nil
}

// displayName prefers the stored full name and falls back to the local
// part of the email address.
func displayName(fullName, email string) string {
	if fullName != "" {
		return fullName
	}

	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}

	return email
}
