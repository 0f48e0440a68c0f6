// Package automation provides the coach's control surface for the
// notification engine: per-kind settings, the dedup log and an
// out-of-band run trigger.
package automation

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/automation"
	"github.com/sparkcoach/sparkcoach/internal/config"
	autoctrl "github.com/sparkcoach/sparkcoach/internal/db/controller/automation"
	"github.com/sparkcoach/sparkcoach/internal/web/handler"
)

const (
	// Path is the base path for automation management.
	Path = handler.AdminPath + "/automations"

	// DefaultLogLimit caps the log view when the query does not pass one.
	DefaultLogLimit = 50
)

// Service provides automation management operations.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	runner    *automation.Runner
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

type settingBody struct {
	Enabled      *bool           `json:"enabled" validate:"required"`
	CooldownDays int             `json:"cooldown_days" validate:"gte=0"`
	Config       json.RawMessage `json:"config"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, runner *automation.Runner) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.runner = runner
	s.validator = validator.New()

	app.Get(Path, auth.RequireAdmin(), s.List)
	app.Put(Path+"/:kind", auth.RequireAdmin(), s.Save)
	app.Get(Path+"/log", auth.RequireAdmin(), s.Log)
	app.Post(Path+"/run", auth.RequireAdmin(), s.Run)

	return nil
}

// List returns all automation settings.
func (s *Service) List(c *fiber.Ctx) error {
	settings, err := autoctrl.GetAllSettings(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list automation settings")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(settings))
	for _, setting := range settings {
		out = append(out, fiber.Map{
			"kind":          setting.Kind,
			"enabled":       setting.Enabled,
			"cooldown_days": setting.CooldownDays,
			"config":        json.RawMessage(setting.Config),
			"last_run":      setting.LastRunAt,
		})
	}

	return c.JSON(out)
}

// Save upserts the setting for one kind. The kind must be one the
// engine knows how to run.
func (s *Service) Save(c *fiber.Ctx) error {
	kind := c.Params("kind")
	if !knownKind(kind) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown automation kind"})
	}

	req := new(settingBody)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	if err := s.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "enabled is required and cooldown_days cannot be negative"})
	}

	setting, err := autoctrl.SaveSetting(s.db, kind, *req.Enabled, req.CooldownDays, req.Config)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("failed to save automation setting")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"kind":          setting.Kind,
		"enabled":       setting.Enabled,
		"cooldown_days": setting.CooldownDays,
		"config":        json.RawMessage(setting.Config),
		"last_run":      setting.LastRunAt,
	})
}

// Log returns automation log entries, newest first.
func (s *Service) Log(c *fiber.Ctx) error {
	limit := DefaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}

		limit = parsed
	}

	entries, err := autoctrl.RecentLog(s.db, autoctrl.LogFilter{
		Kind:      c.Query("kind"),
		Recipient: c.Query("recipient"),
		Limit:     limit,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load automation log")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":         e.ID,
			"kind":       e.Kind,
			"recipient":  e.Recipient,
			"status":     e.Status,
			"details":    json.RawMessage(e.Details),
			"created_at": e.CreatedAt,
		})
	}

	return c.JSON(out)
}

// Run executes one tick immediately and returns its report. A tick
// already in flight yields 409.
func (s *Service) Run(c *fiber.Ctx) error {
	report, err := s.runner.Tick(c.UserContext())
	if err != nil {
		if errors.Is(err, automation.ErrTickInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a tick is already running"})
		}

		log.Error().Err(err).Msg("manual automation run failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(report)
}

func knownKind(kind string) bool {
	for _, k := range automation.Kinds() {
		if k == kind {
			return true
		}
	}

	return false
}
