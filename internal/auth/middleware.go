package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
	"github.com/sparkcoach/sparkcoach/internal/web/session"
)

// CurrentUserKey is the fiber.Locals key holding the signed-in account.
const CurrentUserKey = "CurrentUser"

// RequireAuth creates Fiber middleware that requires a signed-in account.
// The account is stored in c.Locals for handlers downstream.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := sessionUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "unauthorized"})
		}

		c.Locals(CurrentUserKey, user)

		return c.Next()
	}
}

// RequireAdmin creates Fiber middleware that requires the coach account.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := sessionUser(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": "unauthorized"})
		}

		if !user.Admin {
			log.Warn().Str("email", user.Email).Msg("non-admin hit an admin route")

			return c.Status(fiber.StatusForbidden).
				JSON(fiber.Map{"error": "forbidden"})
		}

		c.Locals(CurrentUserKey, user)

		return c.Next()
	}
}

// CurrentUser returns the account stored by the middleware, if any.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(CurrentUserKey).(models.User)

	return user, ok
}

// sessionUser resolves the session cookie to an account.
func sessionUser(c *fiber.Ctx) (models.User, bool) {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return models.User{}, false
	}

	sessData := new(session.Data)
	if err := sessData.Read(sessionID); err != nil {
		return models.User{}, false
	}

	if sessData.User.ID == 0 {
		return models.User{}, false
	}

	return sessData.User, true
}
