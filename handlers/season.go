// handlers/season.go
package handlers

import (
	"team-rsvp/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SetupSeasonRoutes(app *fiber.App, deps Deps) {
	app.Get("/seasons", func(c *fiber.Ctx) error {
		seasons, total, err := deps.Seasons.Seasons(c.UserContext())
		if err != nil {
			deps.Logger.Warn("season stats unavailable", zap.Error(err))
			return c.JSON(fiber.Map{
				"seasons":  []models.Season{},
				"total":    models.SeasonStats{},
				"warnings": []string{"Season statistics are temporarily unavailable"},
			})
		}

		// newest season first, like the past games list
		ordered := make([]models.Season, 0, len(seasons))
		for i := len(seasons) - 1; i >= 0; i-- {
			ordered = append(ordered, seasons[i])
		}

		return c.JSON(fiber.Map{
			"seasons":  ordered,
			"total":    total,
			"warnings": []string{},
		})
	})
}
