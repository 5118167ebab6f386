// handlers/views.go
package handlers

import (
	"context"

	"team-rsvp/config"
	"team-rsvp/middleware"
	"team-rsvp/models"
	"team-rsvp/services"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	warnRSVPUnavailable = "RSVP data is temporarily unavailable"
	warnWeatherOff      = "Weather forecasts are not configured"
	warnWeatherFailed   = "Weather forecast is temporarily unavailable"
)

// GameView is a game as shown to players, with its attendance picture.
type GameView struct {
	models.Game
	DisplayName string                `json:"display_name"`
	Field       string                `json:"field,omitempty"`
	Address     string                `json:"address,omitempty"`
	ResultLabel string                `json:"result_label,omitempty"`
	In          int64                 `json:"in"`
	Out         int64                 `json:"out"`
	Attendance  services.Attendance   `json:"attendance"`
	MyRSVP      *models.Participation `json:"my_rsvp,omitempty"`
}

type warnings []string

func (w *warnings) add(msg string) {
	for _, existing := range *w {
		if existing == msg {
			return
		}
	}
	*w = append(*w, msg)
}

func newWarnings(from []string) warnings {
	w := warnings{}
	for _, msg := range from {
		w.add(msg)
	}
	return w
}

// viewBuilder decorates games with counts; store failures degrade to zero counts plus a warning.
type viewBuilder struct {
	rsvps  *services.RSVPService
	venues config.VenueRules
	logger *zap.Logger
}

func (b viewBuilder) build(ctx context.Context, g models.Game, session *models.Session, warn *warnings) GameView {
	field, address := services.CleanLocation(g.Location, b.venues)
	view := GameView{
		Game:        g,
		DisplayName: services.CleanName(g.Name, b.venues),
		Field:       field,
		Address:     address,
		ResultLabel: g.ResultLabel(),
	}

	in, out, err := b.rsvps.Counts(ctx, g.EventUID)
	if err != nil {
		b.logger.Warn("rsvp counts unavailable", zap.String("event_uid", g.EventUID), zap.Error(err))
		warn.add(warnRSVPUnavailable)
		in, out = 0, 0
	}
	view.In, view.Out = in, out
	view.Attendance = services.AttendanceStatus(in)

	if session != nil {
		mine, err := b.rsvps.UserRSVPForEvent(ctx, session.Name, g.EventUID)
		if err != nil {
			warn.add(warnRSVPUnavailable)
		} else if mine != nil {
			p := mine.Participation
			view.MyRSVP = &p
		}
	}

	return view
}

func (b viewBuilder) buildAll(ctx context.Context, games []models.Game, session *models.Session, warn *warnings) []GameView {
	views := make([]GameView, 0, len(games))
	for _, g := range games {
		views = append(views, b.build(ctx, g, session, warn))
	}
	return views
}

func sessionPtr(c *fiber.Ctx) *models.Session {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		return nil
	}
	return &session
}

// writeError maps service errors onto HTTP statuses for mutating endpoints.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case services.IsStoreError(err):
		logger.Error("store unavailable", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":    "storage temporarily unavailable, please try again",
			"warnings": []string{warnRSVPUnavailable},
		})
	default:
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
