// handlers/auth.go
package handlers

import (
	"team-rsvp/middleware"
	"team-rsvp/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type loginRequest struct {
	Name string `json:"name"`
}

// SetupAuthRoutes exposes name-only login. The returned token just carries the name;
// clients send it back as ?session= or X-Session-Token.
func SetupAuthRoutes(app *fiber.App, deps Deps) {
	app.Post("/login", func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		session, err := models.NewSession(req.Name)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		deps.Logger.Info("player logged in", zap.String("name", session.Name))
		return c.JSON(fiber.Map{
			"name":  session.Name,
			"token": session.Token(),
		})
	})

	app.Get("/me", middleware.RequireSession(), func(c *fiber.Ctx) error {
		session, _ := middleware.SessionFrom(c)
		return c.JSON(session)
	})
}
