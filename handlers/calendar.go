// handlers/calendar.go
package handlers

import (
	"team-rsvp/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SetupCalendarRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/calendar/refresh", middleware.AdminTokenMiddleware(deps.AdminToken, deps.Logger), func(c *fiber.Ctx) error {
		snap := deps.Ingest.Refresh(c.UserContext())
		deps.Logger.Info("calendar refreshed on request",
			zap.Int("games", len(snap.Games)),
			zap.Bool("stale", snap.Stale),
		)

		return c.JSON(fiber.Map{
			"games":      len(snap.Games),
			"stale":      snap.Stale,
			"fetched_at": snap.FetchedAt,
			"warnings":   snap.Warnings,
		})
	})
}
