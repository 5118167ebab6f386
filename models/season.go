package models

import "time"

// SeasonStats aggregates games that have a recorded result.
type SeasonStats struct {
	Played       int     `json:"played"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinPct       float64 `json:"win_pct"`
	GoalsFor     int     `json:"goals_for"`
	GoalsAgainst int     `json:"goals_against"`
	GoalDiff     int     `json:"goal_diff"`
}

// Season is a contiguous run of games; it is derived on demand and never stored.
type Season struct {
	Number    int         `json:"number"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Games     []Game      `json:"games"`
	Stats     SeasonStats `json:"stats"`
}
