// Package client provides handlers for managing client accounts (CRUD)
// in the coach area, plus the inactivity view the coach uses to see who
// has drifted away from the portal.
package client

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/activity"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/user"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
)

const (
	// Path is the base path for client management.
	Path = handler.AdminPath + "/clients"

	// DefaultInactiveDays is the window for the inactivity view when the
	// query does not pass one.
	DefaultInactiveDays = 7
)

// Service provides CRUD operations for client accounts.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type createBody struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	ProgrammeAccess string `json:"programme_access"`
}

type updateBody struct {
	FullName        *string `json:"full_name"`
	Active          *bool   `json:"active"`
	ProgrammeAccess *string `json:"programme_access"`
	ProgrammeStatus *string `json:"programme_status" validate:"omitempty,oneof=active paused completed"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()

	app.Get(Path, auth.RequireAdmin(), s.List)
	app.Post(Path, auth.RequireAdmin(), s.Create)
	app.Get(Path+"/inactive", auth.RequireAdmin(), s.Inactive)
	app.Patch(Path+"/:email", auth.RequireAdmin(), s.Update)
	app.Delete(Path+"/:email", auth.RequireAdmin(), s.Delete)

	return nil
}

// List returns all client accounts.
func (s *Service) List(c *fiber.Ctx) error {
	clients, err := user.ListClients(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list clients")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(clients))
	for _, u := range clients {
		out = append(out, clientJSON(u))
	}

	return c.JSON(out)
}

// Create adds a client account.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(createBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "email, full_name and a password of at least 8 characters are required"})
	}

	u, err := user.Create(s.db, req.Email, req.FullName, req.Password, false)
	if err != nil {
		if errors.Is(err, user.ErrUserAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "account already exists"})
		}

		log.Error().Err(err).Msg("failed to create client")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	if req.ProgrammeAccess != "" {
		if _, err = user.Update(s.db, u.Email, map[string]interface{}{
			"programme_access": req.ProgrammeAccess,
		}); err != nil {
			log.Error().Err(err).Str("email", u.Email).Msg("failed to set programme access")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(clientJSON(*u))
}

// Update applies partial changes to a client account.
func (s *Service) Update(c *fiber.Ctx) error {
	email := c.Params("email")

	req := new(updateBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "programme_status must be active, paused or completed"})
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.ProgrammeAccess != nil {
		updates["programme_access"] = *req.ProgrammeAccess
	}
	if req.ProgrammeStatus != nil {
		updates["programme_status"] = models.ProgrammeStatus(*req.ProgrammeStatus)
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nothing to update"})
	}

	u, err := user.Update(s.db, email, updates)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}

		log.Error().Err(err).Str("email", email).Msg("failed to update client")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(clientJSON(*u))
}

// Delete removes a client account.
func (s *Service) Delete(c *fiber.Ctx) error {
	email := c.Params("email")

	if err := user.Delete(s.db, email); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}

		log.Error().Err(err).Str("email", email).Msg("failed to delete client")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"status": "deleted"})
}

// Inactive returns active clients with no login inside the window.
func (s *Service) Inactive(c *fiber.Ctx) error {
	days := DefaultInactiveDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be a positive integer"})
		}

		days = parsed
	}

	now := time.Now().UTC()

	rows, err := activity.InactiveClients(s.db, days, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to load inactive clients")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, fiber.Map{
			"email":         r.Email,
			"full_name":     r.FullName,
			"last_login":    r.LastLogin,
			"login_count":   r.LoginCount,
			"days_inactive": r.DaysInactive(now),
		})
	}

	return c.JSON(out)
}

func clientJSON(u models.User) fiber.Map {
	return fiber.Map{
		"email":            u.Email,
		"full_name":        u.FullName,
		"active":           u.Active,
		"programme_access": u.ProgrammeAccess,
		"programme_status": u.ProgrammeStatus,
		"created_at":       u.CreatedAt,
	}
}
