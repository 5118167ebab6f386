package services

import (
	"sort"
	"time"

	"team-rsvp/models"
)

const (
	MinimumPlayers = 8
	IdealPlayers   = 12

	// RecentRSVPLimit caps the past games listed under "my RSVPs".
	RecentRSVPLimit = 5
)

type AttendanceLevel string

const (
	AttendanceEmergency AttendanceLevel = "emergency"
	AttendanceShort     AttendanceLevel = "short"
	AttendanceFull      AttendanceLevel = "full"
)

// Attendance summarises whether a game has enough players.
type Attendance struct {
	Level    AttendanceLevel `json:"level"`
	In       int64           `json:"in"`
	Target   int             `json:"target"`
	Needed   int64           `json:"needed"`
	Progress float64         `json:"progress"`
}

// AttendanceStatus grades an In count: below the minimum is an emergency with progress
// towards the minimum; between minimum and ideal reports progress from minimum to ideal.
func AttendanceStatus(in int64) Attendance {
	if in < 0 {
		in = 0
	}
	switch {
	case in < MinimumPlayers:
		return Attendance{
			Level:    AttendanceEmergency,
			In:       in,
			Target:   MinimumPlayers,
			Needed:   MinimumPlayers - in,
			Progress: float64(in) / MinimumPlayers,
		}
	case in < IdealPlayers:
		return Attendance{
			Level:    AttendanceShort,
			In:       in,
			Target:   IdealPlayers,
			Needed:   IdealPlayers - in,
			Progress: float64(in-MinimumPlayers) / (IdealPlayers - MinimumPlayers),
		}
	default:
		return Attendance{Level: AttendanceFull, In: in, Target: IdealPlayers, Progress: 1}
	}
}

// Schedule is the three game lists players browse. A game played earlier this week
// appears in both Week and Past.
type Schedule struct {
	WeekStart time.Time     `json:"week_start"`
	Week      []models.Game `json:"week"`
	Future    []models.Game `json:"future"`
	Past      []models.Game `json:"past"`
}

// WeekStart is midnight on the Monday of the week containing now, in now's location.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// Partition sorts games into this week (Monday to Sunday containing now), later weeks,
// and games already started, most recent first. Dates are read in now's location.
func Partition(games []models.Game, now time.Time) Schedule {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)

	schedule := Schedule{
		WeekStart: start,
		Week:      []models.Game{},
		Future:    []models.Game{},
		Past:      []models.Game{},
	}

	for _, g := range games {
		local := g.StartTime.In(now.Location())
		switch {
		case !local.Before(start) && local.Before(end):
			schedule.Week = append(schedule.Week, g)
		case !local.Before(end):
			schedule.Future = append(schedule.Future, g)
		}
		if g.StartTime.Before(now) {
			schedule.Past = append(schedule.Past, g)
		}
	}

	sortByStart(schedule.Week, false)
	sortByStart(schedule.Future, false)
	sortByStart(schedule.Past, true)
	return schedule
}

func sortByStart(games []models.Game, newestFirst bool) {
	sort.SliceStable(games, func(i, j int) bool {
		if newestFirst {
			return games[i].StartTime.After(games[j].StartTime)
		}
		return games[i].StartTime.Before(games[j].StartTime)
	})
}

// UserGame pairs one of a player's votes with the game it is for.
type UserGame struct {
	Game models.Game `json:"game"`
	RSVP models.RSVP `json:"rsvp"`
}

// SplitUserRSVPs joins a player's votes to known games. Upcoming games come earliest
// first; past games newest first, capped at RecentRSVPLimit. Votes for games no longer
// in the feed are dropped.
func SplitUserRSVPs(rsvps []models.RSVP, games []models.Game, now time.Time) (upcoming, past []UserGame) {
	byUID := make(map[string]models.Game, len(games))
	for _, g := range games {
		byUID[g.EventUID] = g
	}

	upcoming = []UserGame{}
	past = []UserGame{}
	for _, r := range rsvps {
		g, ok := byUID[r.EventUID]
		if !ok {
			continue
		}
		if g.StartTime.After(now) {
			upcoming = append(upcoming, UserGame{Game: g, RSVP: r})
		} else {
			past = append(past, UserGame{Game: g, RSVP: r})
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Game.StartTime.Before(upcoming[j].Game.StartTime)
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].Game.StartTime.After(past[j].Game.StartTime)
	})
	if len(past) > RecentRSVPLimit {
		past = past[:RecentRSVPLimit]
	}
	return upcoming, past
}
