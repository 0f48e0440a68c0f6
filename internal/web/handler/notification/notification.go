// Package notification provides the portal notification endpoints:
// clients read and acknowledge their own notifications, the coach sends
// ad-hoc messages that go out as email and land in the portal.
package notification

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/notification"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
)

const (
	// Path is the base path for a client's own notifications.
	Path = handler.APIPath + "/notifications"
	// NotifyPath is the coach endpoint for ad-hoc client messages.
	NotifyPath = handler.AdminPath + "/notify"
)

// Service provides notification operations.
type Service struct {
	handler.Service
	cfg        *config.Config
	db         *gorm.DB
	dispatcher mailer.Dispatcher
	validator  *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type notifyBody struct {
	ClientEmail      string `json:"client_email" validate:"required,email"`
	ClientName       string `json:"client_name" validate:"required"`
	NotificationType string `json:"notification_type" validate:"required,oneof=login_reminder homework_ready custom"`
	Subject          string `json:"subject"`
	Message          string `json:"message"`
	Link             string `json:"link" validate:"omitempty,url"`
	LinkText         string `json:"link_text"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, dispatcher mailer.Dispatcher) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.dispatcher = dispatcher
	s.validator = validator.New()

	app.Get(Path, auth.RequireAuth(), s.Unread)
	app.Post(Path+"/:id/read", auth.RequireAuth(), s.MarkRead)

	app.Post(NotifyPath, auth.RequireAdmin(), s.Notify)

	return nil
}

// Unread returns the signed-in client's unread notifications, newest first.
func (s *Service) Unread(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	rows, err := notification.Unread(s.db, user.Email)
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to list notifications")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, n := range rows {
		out = append(out, fiber.Map{
			"id":        n.ID,
			"type":      n.NotificationType,
			"subject":   n.Subject,
			"message":   n.Message,
			"link":      n.Link,
			"link_text": n.LinkText,
			"sent_at":   n.SentAt,
		})
	}

	return c.JSON(out)
}

// MarkRead acknowledges one of the signed-in client's notifications.
func (s *Service) MarkRead(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be an integer"})
	}

	if err := notification.MarkRead(s.db, user.Email, id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "notification not found"})
		}

		log.Error().Err(err).Str("email", user.Email).Msg("failed to mark notification read")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"status": "read"})
}

// Notify sends an ad-hoc message to a client: an email plus a portal
// notification row.
func (s *Service) Notify(c *fiber.Ctx) error {
	req := new(notifyBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "client_email, client_name and a known notification_type are required"})
	}

	msg := mailer.Message{
		Kind:          mailer.Kind(req.NotificationType),
		Recipient:     req.ClientEmail,
		RecipientName: req.ClientName,
		Subject:       req.Subject,
		Body:          req.Message,
		Link:          req.Link,
		LinkText:      req.LinkText,
	}

	if err := s.dispatcher.Send(c.UserContext(), msg); err != nil {
		log.Error().Err(err).Str("email", req.ClientEmail).Msg("failed to send notification")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "message could not be delivered"})
	}

	return c.JSON(fiber.Map{"status": "notification sent to " + req.ClientName})
}
