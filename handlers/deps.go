// handlers/deps.go
package handlers

import (
	"time"

	"team-rsvp/config"
	"team-rsvp/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Deps carries the services the HTTP routes are built on.
type Deps struct {
	Ingest     *services.IngestService
	Games      *services.GameService
	RSVPs      *services.RSVPService
	Seasons    *services.SeasonService
	Weather    *services.WeatherClient
	Venues     config.VenueRules
	AdminToken string
	Logger     *zap.Logger

	// Now is the clock used to split past from upcoming games; defaults to time.Now.
	Now func() time.Time
	// Location sets where weeks start and end; nil keeps the clock's own zone.
	Location *time.Location
}

func (d Deps) now() time.Time {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	if d.Location != nil {
		now = now.In(d.Location)
	}
	return now
}

func (d Deps) views() viewBuilder {
	return viewBuilder{rsvps: d.RSVPs, venues: d.Venues, logger: d.Logger}
}

// SetupRoutes registers every route group.
func SetupRoutes(app *fiber.App, deps Deps) {
	SetupCalendarRoutes(app, deps)
	SetupAuthRoutes(app, deps)
	SetupGameRoutes(app, deps)
	SetupRSVPRoutes(app, deps)
	SetupSeasonRoutes(app, deps)
}
