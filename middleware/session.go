// middleware/session.go
package middleware

import (
	"strings"

	"team-rsvp/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-Token"
	SessionQuery  = "session"

	sessionLocalsKey = "session"
)

// SessionMiddleware restores the caller's display name from the session token carried
// in the query string or the X-Session-Token header. A missing or unreadable token
// leaves the request anonymous; RequireSession decides whether that is allowed.
func SessionMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(string(c.Request().URI().QueryArgs().Peek(SessionQuery)))
		if token == "" {
			token = strings.TrimSpace(c.Get(SessionHeader))
		}
		if token == "" {
			return c.Next()
		}

		session, err := models.SessionFromToken(token)
		if err != nil {
			logger.Debug("ignoring unreadable session token", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}

		c.Locals(sessionLocalsKey, session)
		return c.Next()
	}
}

// RequireSession rejects anonymous requests.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SessionFrom(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "login required",
			})
		}
		return c.Next()
	}
}

// SessionFrom returns the session attached by SessionMiddleware.
func SessionFrom(c *fiber.Ctx) (models.Session, bool) {
	session, ok := c.Locals(sessionLocalsKey).(models.Session)
	return session, ok
}
