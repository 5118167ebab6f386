// handlers/rsvp.go
package handlers

import (
	"team-rsvp/middleware"
	"team-rsvp/models"
	"team-rsvp/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type rsvpRequest struct {
	Participation string `json:"participation"`
}

func SetupRSVPRoutes(app *fiber.App, deps Deps) {
	requireSession := middleware.RequireSession()

	// In/Out button press: the same status again withdraws the vote
	app.Post("/games/:uid/rsvp", requireSession, func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		session, _ := middleware.SessionFrom(c)
		uid := c.Params("uid")

		var req rsvpRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		participation, ok := models.ParseParticipation(req.Participation)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "participation must be In or Out"})
		}

		current, err := deps.RSVPs.Toggle(ctx, session, uid, participation)
		if err != nil {
			return writeError(c, deps.Logger, err)
		}

		warn := warnings{}
		in, out, err := deps.RSVPs.Counts(ctx, uid)
		if err != nil {
			warn.add(warnRSVPUnavailable)
			in, out = 0, 0
		}

		return c.JSON(fiber.Map{
			"rsvp":       current,
			"in":         in,
			"out":        out,
			"attendance": services.AttendanceStatus(in),
			"warnings":   warn,
		})
	})

	app.Delete("/rsvps/:id", requireSession, func(c *fiber.Ctx) error {
		session, _ := middleware.SessionFrom(c)
		if err := deps.RSVPs.ClearOwnRSVP(c.UserContext(), session.Name, c.Params("id")); err != nil {
			return writeError(c, deps.Logger, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/me/rsvps", requireSession, func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		session, _ := middleware.SessionFrom(c)

		snap := deps.Ingest.Snapshot(ctx)
		warn := newWarnings(snap.Warnings)

		rsvps, err := deps.RSVPs.ForUser(ctx, session.Name)
		if err != nil {
			deps.Logger.Warn("user rsvps unavailable", zap.String("user", session.Name), zap.Error(err))
			warn.add(warnRSVPUnavailable)
			rsvps = []models.RSVP{}
		}

		upcoming, past := services.SplitUserRSVPs(rsvps, snap.Games, deps.now())
		return c.JSON(fiber.Map{
			"name":     session.Name,
			"upcoming": upcoming,
			"past":     past,
			"stale":    snap.Stale,
			"warnings": warn,
		})
	})

	// "Clear all my RSVPs"
	app.Delete("/me/rsvps", requireSession, func(c *fiber.Ctx) error {
		session, _ := middleware.SessionFrom(c)

		removed, err := deps.RSVPs.ClearAllForUser(c.UserContext(), session.Name)
		if err != nil {
			return writeError(c, deps.Logger, err)
		}

		deps.Logger.Info("cleared all rsvps", zap.String("user", services.CanonicalName(session.Name)), zap.Int64("removed", removed))
		return c.JSON(fiber.Map{"removed": removed})
	})
}
