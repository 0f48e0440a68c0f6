// Package homework provides the homework endpoints: clients list and
// submit their own assignments, the coach assigns them and reviews the
// overdue list the alert automation works from.
package homework

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/homework"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
)

const (
	// Path is the base path for a client's own homework.
	Path = handler.APIPath + "/homework"
	// AdminPath is the base path for coach homework management.
	AdminPath = handler.AdminPath + "/homework"

	// DefaultPendingDays is the window for the overdue view when the
	// query does not pass one.
	DefaultPendingDays = 3
)

// Service provides homework operations.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type assignBody struct {
	ClientEmail  string `json:"client_email" validate:"required,email"`
	HomeworkType string `json:"homework_type" validate:"required"`
}

type submitBody struct {
	Responses json.RawMessage `json:"responses" validate:"required"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()

	app.Get(Path, auth.RequireAuth(), s.List)
	app.Post(Path+"/:type/submit", auth.RequireAuth(), s.Submit)

	app.Post(AdminPath+"/assign", auth.RequireAdmin(), s.Assign)
	app.Get(AdminPath+"/pending", auth.RequireAdmin(), s.Pending)

	return nil
}

// List returns the signed-in client's homework, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	rows, err := homework.ListForClient(s.db, user.Email)
	if err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to list homework")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, h := range rows {
		out = append(out, homeworkJSON(h))
	}

	return c.JSON(out)
}

// Submit stores the signed-in client's responses for a homework type.
func (s *Service) Submit(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	homeworkType := c.Params("type")

	req := new(submitBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "responses are required"})
	}

	h, err := homework.Submit(s.db, user.Email, homeworkType, req.Responses, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).
			Str("email", user.Email).
			Str("type", homeworkType).
			Msg("failed to submit homework")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(homeworkJSON(*h))
}

// Assign creates a homework row for a client. Assigning the same open
// type twice returns the existing row.
func (s *Service) Assign(c *fiber.Ctx) error {
	req := new(assignBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "client_email and homework_type are required"})
	}

	h, err := homework.Assign(s.db, req.ClientEmail, req.HomeworkType, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).
			Str("email", req.ClientEmail).
			Str("type", req.HomeworkType).
			Msg("failed to assign homework")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(homeworkJSON(*h))
}

// Pending returns clients sitting on unsubmitted homework older than the window.
func (s *Service) Pending(c *fiber.Ctx) error {
	days := DefaultPendingDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be a positive integer"})
		}

		days = parsed
	}

	rows, err := homework.PendingClients(s.db, days, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to load pending homework")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, fiber.Map{
			"email":         r.Email,
			"full_name":     r.FullName,
			"homework_type": r.HomeworkType,
			"assigned_at":   r.AssignedAt,
		})
	}

	return c.JSON(out)
}

func homeworkJSON(h models.Homework) fiber.Map {
	return fiber.Map{
		"id":            h.ID,
		"homework_type": h.HomeworkType,
		"assigned_at":   h.AssignedAt,
		"submitted_at":  h.SubmittedAt,
		"responses":     json.RawMessage(h.Responses),
	}
}
