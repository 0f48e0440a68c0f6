// Package login provides the sign-in, sign-out and current-account
// endpoints. A successful sign-in also feeds the login tracking table
// the reminder automation reads.
package login

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/activity"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
	"github.com/sparkcoach/sparkcoach/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = handler.APIPath + "/login"
	// LogoutPath is the path to the logout endpoint.
	LogoutPath = handler.APIPath + "/logout"
	// MePath returns the signed-in account.
	MePath = handler.APIPath + "/me"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.authService = authService

	app.Post(Path, s.Login)
	app.Post(LogoutPath, s.Logout)
	app.Get(MePath, auth.RequireAuth(), s.Me)

	return nil
}

// Login handles the sign-in request and sets the session cookie.
func (s *Service) Login(c *fiber.Ctx) error {
	req := new(loginRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	user, err := s.authService.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserAccountDisabled) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "account is disabled"})
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	userSession := &session.Data{User: *user}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	if err = activity.TrackLogin(s.db, user.Email, time.Now().UTC()); err != nil {
		// A tracking miss must not block the sign-in.
		log.Error().Err(err).Str("email", user.Email).Msg("failed to track login")
	}

	cookieSettings := &fiber.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.JSON(fiber.Map{
		"email":                user.Email,
		"full_name":            user.FullName,
		"admin":                user.Admin,
		"must_change_password": user.MustChangePassword,
	})
}

// Logout clears the session and its cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(session.CookieName)
	if sessionID != "" {
		if err := session.Destroy(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		MaxAge:   -1,
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"status": "signed out"})
}

// Me returns the signed-in account.
func (s *Service) Me(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	return c.JSON(fiber.Map{
		"email":            user.Email,
		"full_name":        user.FullName,
		"admin":            user.Admin,
		"programme_access": user.ProgrammeAccess,
		"programme_status": user.ProgrammeStatus,
	})
}
