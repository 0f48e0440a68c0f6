// Package passwordreset provides the forgot-password flow: a request
// endpoint that emails a one-hour token and a confirm endpoint that
// exchanges the token for a new password.
package passwordreset

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/user"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
)

const (
	// RequestPath starts a reset and emails the token.
	RequestPath = handler.APIPath + "/password-reset/request"
	// ConfirmPath exchanges a token for a new password.
	ConfirmPath = handler.APIPath + "/password-reset/confirm"
)

// Service is the password reset handler service.
type Service struct {
	handler.Service
	cfg        *config.Config
	db         *gorm.DB
	dispatcher mailer.Dispatcher
	validator  *validator.Validate
}

// Handler is the password reset handler.
var Handler = Service{}

type requestBody struct {
	Email string `json:"email" validate:"required,email"`
}

type confirmBody struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Init initializes the password reset handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, dispatcher mailer.Dispatcher) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.dispatcher = dispatcher
	s.validator = validator.New()

	app.Post(RequestPath, s.Request)
	app.Post(ConfirmPath, s.Confirm)

	return nil
}

// Request issues a reset token and emails it. The response is the same
// whether or not the email belongs to an account.
func (s *Service) Request(c *fiber.Ctx) error {
	req := new(requestBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a valid email is required"})
	}

	response := fiber.Map{"status": "if the account exists, a reset email is on its way"}

	token, err := user.CreateResetToken(s.db, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			log.Error().Err(err).Msg("failed to create reset token")
		}

		return c.JSON(response)
	}

	u, err := user.GetByEmail(s.db, req.Email)
	if err != nil {
		log.Error().Err(err).Msg("failed to load account after token creation")

		return c.JSON(response)
	}

	msg := mailer.Message{
		Kind:          mailer.KindPasswordReset,
		Recipient:     u.Email,
		RecipientName: u.FullName,
		Link:          s.cfg.Webserver.PortalURL + "/reset-password?token=" + token,
	}

	if err := s.dispatcher.Send(c.UserContext(), msg); err != nil {
		log.Error().Err(err).Str("email", u.Email).Msg("failed to send reset email")
	}

	return c.JSON(response)
}

// Confirm validates the token and sets the new password.
func (s *Service) Confirm(c *fiber.Ctx) error {
	req := new(confirmBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "token and a password of at least 8 characters are required"})
	}

	u, err := user.GetByResetToken(s.db, req.Token)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "reset token is invalid or expired"})
	}

	if err := user.SetPassword(s.db, u.Email, req.NewPassword); err != nil {
		log.Error().Err(err).Str("email", u.Email).Msg("failed to set password")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"status": "password updated"})
}
