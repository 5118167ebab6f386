// handlers/game.go
package handlers

import (
	"team-rsvp/models"
	"team-rsvp/services"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func SetupGameRoutes(app *fiber.App, deps Deps) {
	views := deps.views()

	// listGames renders one of the schedule lists out of the current calendar snapshot
	listGames := func(pick func(services.Schedule) []models.Game) fiber.Handler {
		return func(c *fiber.Ctx) error {
			ctx := c.UserContext()
			snap := deps.Ingest.Snapshot(ctx)
			warn := newWarnings(snap.Warnings)

			schedule := services.Partition(snap.Games, deps.now())
			games := views.buildAll(ctx, pick(schedule), sessionPtr(c), &warn)

			return c.JSON(fiber.Map{
				"games":      games,
				"week_start": schedule.WeekStart,
				"stale":      snap.Stale,
				"warnings":   warn,
			})
		}
	}

	app.Get("/games/week", listGames(func(s services.Schedule) []models.Game { return s.Week }))
	app.Get("/games/future", listGames(func(s services.Schedule) []models.Game { return s.Future }))
	app.Get("/games/past", listGames(func(s services.Schedule) []models.Game { return s.Past }))

	app.Get("/games/:uid", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		game, err := deps.Ingest.FindGame(ctx, c.Params("uid"))
		if err != nil {
			return readError(c, deps.Logger, err)
		}

		warn := warnings{}
		return c.JSON(fiber.Map{
			"game":     views.build(ctx, *game, sessionPtr(c), &warn),
			"warnings": warn,
		})
	})

	app.Get("/games/:uid/rsvps", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		uid := c.Params("uid")
		warn := warnings{}

		in, out, err := deps.RSVPs.Counts(ctx, uid)
		if err != nil {
			deps.Logger.Warn("rsvp counts unavailable", zap.String("event_uid", uid), zap.Error(err))
			warn.add(warnRSVPUnavailable)
			in, out = 0, 0
		}

		attendees, err := deps.RSVPs.ListForEvent(ctx, uid)
		if err != nil {
			deps.Logger.Warn("rsvp list unavailable", zap.String("event_uid", uid), zap.Error(err))
			warn.add(warnRSVPUnavailable)
			attendees = []models.Attendee{}
		}

		playing, declined := []string{}, []string{}
		for _, a := range attendees {
			if a.Participation == models.ParticipationIn {
				playing = append(playing, a.Name)
			} else {
				declined = append(declined, a.Name)
			}
		}

		return c.JSON(fiber.Map{
			"event_uid":  uid,
			"in":         in,
			"out":        out,
			"attendance": services.AttendanceStatus(in),
			"rsvps":      attendees,
			"playing":    playing,
			"declined":   declined,
			"warnings":   warn,
		})
	})

	app.Get("/games/:uid/weather", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		game, err := deps.Ingest.FindGame(ctx, c.Params("uid"))
		if err != nil {
			return readError(c, deps.Logger, err)
		}

		if deps.Weather == nil || !deps.Weather.Enabled() {
			return c.JSON(fiber.Map{"forecast": nil, "warnings": []string{warnWeatherOff}})
		}

		_, address := services.CleanLocation(game.Location, deps.Venues)
		forecast, err := deps.Weather.Forecast(ctx, game.StartTime, address)
		if err != nil {
			deps.Logger.Warn("weather lookup failed", zap.String("event_uid", game.EventUID), zap.Error(err))
			return c.JSON(fiber.Map{"forecast": nil, "warnings": []string{warnWeatherFailed}})
		}

		return c.JSON(fiber.Map{"forecast": forecast, "warnings": []string{}})
	})
}

// readError answers a failed lookup: unknown games are 404, anything else degrades
// to an empty payload with a warning.
func readError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	}
	logger.Warn("game lookup failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(fiber.Map{"game": nil, "warnings": []string{warnRSVPUnavailable}})
}
