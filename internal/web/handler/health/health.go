// Package health provides the liveness endpoint load balancers poll.
// During graceful shutdown it flips to 503 so the instance drains before
// the listener stops.
package health

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Path is the liveness endpoint.
const Path = "/healthz"

// Service answers liveness probes.
type Service struct {
	db    *gorm.DB
	alive *atomic.Bool
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers the route. alive is owned by the web service and
// flipped false when shutdown starts.
func (s *Service) Init(app *fiber.App, db *gorm.DB, alive *atomic.Bool) {
	s.db = db
	s.alive = alive

	app.Get(Path, s.Check)
}

// Check reports liveness, including database reachability.
func (s *Service) Check(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting down"})
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
	}

	if err := sqlDB.Ping(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
