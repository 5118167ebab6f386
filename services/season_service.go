package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"team-rsvp/models"
)

// SeasonGapDays is the break between consecutive games that starts a new season.
const SeasonGapDays = 20

type SeasonService struct {
	Games    *GameService
	Location *time.Location
}

func NewSeasonService(games *GameService, loc *time.Location) *SeasonService {
	return &SeasonService{Games: games, Location: loc}
}

// Seasons loads every stored game and segments it.
func (s *SeasonService) Seasons(ctx context.Context) ([]models.Season, models.SeasonStats, error) {
	games, err := s.Games.ListAll(ctx)
	if err != nil {
		return nil, models.SeasonStats{}, err
	}
	seasons := Segment(games, s.Location)
	return seasons, AllSeasons(seasons), nil
}

// Segment splits games into seasons wherever the gap between the calendar dates of
// consecutive games, read in loc, is at least SeasonGapDays. Input order does not matter.
func Segment(games []models.Game, loc *time.Location) []models.Season {
	if len(games) == 0 {
		return []models.Season{}
	}

	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	var seasons []models.Season
	current := []models.Game{ordered[0]}
	for i := 1; i < len(ordered); i++ {
		gap := GameDay(ordered[i], loc).Sub(GameDay(ordered[i-1], loc)).Hours() / 24
		if gap >= SeasonGapDays {
			seasons = append(seasons, buildSeason(len(seasons)+1, current, loc))
			current = nil
		}
		current = append(current, ordered[i])
	}
	seasons = append(seasons, buildSeason(len(seasons)+1, current, loc))

	return seasons
}

func buildSeason(number int, games []models.Game, loc *time.Location) models.Season {
	return models.Season{
		Number:    number,
		StartDate: GameDay(games[0], loc),
		EndDate:   GameDay(games[len(games)-1], loc),
		Games:     games,
		Stats:     seasonStats(games),
	}
}

func seasonStats(games []models.Game) models.SeasonStats {
	var stats models.SeasonStats
	for _, g := range games {
		if g.Result == nil {
			continue
		}
		stats.Played++
		switch *g.Result {
		case models.GameResultWin:
			stats.Wins++
		case models.GameResultLoss:
			stats.Losses++
		}

		if g.Score == nil {
			continue
		}
		forGoals, againstGoals, ok := parseScore(*g.Score)
		if !ok {
			continue
		}
		stats.GoalsFor += forGoals
		stats.GoalsAgainst += againstGoals
	}
	finishStats(&stats)
	return stats
}

// parseScore reads "A-B" as (our goals, their goals).
func parseScore(score string) (int, int, bool) {
	parts := strings.SplitN(score, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}

func finishStats(stats *models.SeasonStats) {
	stats.GoalDiff = stats.GoalsFor - stats.GoalsAgainst
	stats.WinPct = 0
	if stats.Played > 0 {
		stats.WinPct = float64(stats.Wins) / float64(stats.Played) * 100
	}
}

// AllSeasons sums per-season figures into an all-time line.
func AllSeasons(seasons []models.Season) models.SeasonStats {
	var total models.SeasonStats
	for _, season := range seasons {
		total.Played += season.Stats.Played
		total.Wins += season.Stats.Wins
		total.Losses += season.Stats.Losses
		total.GoalsFor += season.Stats.GoalsFor
		total.GoalsAgainst += season.Stats.GoalsAgainst
	}
	finishStats(&total)
	return total
}
